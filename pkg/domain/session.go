package domain

import "time"

// Status is the lifecycle stage of a deal session. Transitions only move
// forward along requesting → awaiting_randomness → computing_proof → ready,
// with failed reachable from any non-terminal status. Ready and failed are
// terminal.
type Status string

const (
	// StatusRequesting: session created, randomness request in flight.
	StatusRequesting Status = "requesting"
	// StatusAwaitingRandomness: request submitted, waiting for fulfillment.
	StatusAwaitingRandomness Status = "awaiting_randomness"
	// StatusComputingProof: randomness received, proof being generated.
	StatusComputingProof Status = "computing_proof"
	// StatusReady: game dealt, proof archived, result available.
	StatusReady Status = "ready"
	// StatusFailed: a terminal error occurred; see the failure cause.
	StatusFailed Status = "failed"
)

var statusRank = map[Status]int{
	StatusRequesting:         0,
	StatusAwaitingRandomness: 1,
	StatusComputingProof:     2,
	StatusReady:              3,
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is legal: strictly
// forward along the pipeline, or to failed from any non-terminal status.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	return okFrom && okTo && to > from
}

// SessionRecord is the registry's view of one deal session. The registry
// owns all records; callers only ever see snapshots.
type SessionRecord struct {
	SessionID      string      `json:"session_id"`
	NumPlayers     uint8       `json:"num_players"`
	CardsPerPlayer uint8       `json:"cards_per_player"`
	RequestID      Word        `json:"vrf_request_id"`
	BlockNumber    uint64      `json:"vrf_block_number"`
	RequestedAt    time.Time   `json:"requested_at"`
	Status         Status      `json:"status"`
	FailureCause   string      `json:"failure_cause,omitempty"`
	Result         *GameResult `json:"result,omitempty"`
}

// Clone returns a deep copy suitable for handing outside the registry lock.
func (r *SessionRecord) Clone() SessionRecord {
	out := *r
	if r.Result != nil {
		res := r.Result.Clone()
		out.Result = &res
	}
	return out
}

// SessionInitiation is the immediate answer to a start request, returned
// while the randomness request proceeds in the background.
type SessionInitiation struct {
	SessionID            string `json:"session_id"`
	Status               Status `json:"status"`
	EstimatedWaitSeconds int    `json:"estimated_wait_seconds"`
}

// SessionStatus is the answer to a status query.
type SessionStatus struct {
	SessionID      string `json:"session_id"`
	Status         Status `json:"status"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	RequestID      *Word  `json:"vrf_request_id,omitempty"`
	FailureCause   string `json:"failure_cause,omitempty"`
}

// SeedMetadata binds a random word to the oracle request that produced it.
type SeedMetadata struct {
	Value     Word `json:"value"`
	RequestID Word `json:"request_id"`
}

// GameResult is the terminal payload of a ready session: the realized deal,
// its seed provenance, and where the proof artifact was archived.
type GameResult struct {
	Game        GameState `json:"game_state"`
	ArtifactRef string    `json:"artifact_ref"`
}

// Clone returns a deep copy of the result.
func (r *GameResult) Clone() GameResult {
	out := *r
	out.Game = r.Game.Clone()
	return out
}

// PublicValues are the committed public inputs of a deal proof, mirroring
// the prover's output layout.
type PublicValues struct {
	NumPlayers      uint8    `json:"num_players"`
	CardsPerPlayer  uint8    `json:"cards_per_player"`
	HandCommitments []string `json:"initial_hands_hash"`
	DrawPileHash    string   `json:"draw_pile_hash"`
	MerkleRoot      string   `json:"merkle_root"`
	Seed            string   `json:"seed"`
}

// ProofArtifact is the opaque output of the proof engine, serialized and
// archived as-is.
type ProofArtifact struct {
	ImageID      string       `json:"image_id"`
	Proof        string       `json:"proof"`
	PublicValues PublicValues `json:"public_values"`
}
