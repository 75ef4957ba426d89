package ratings

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/serroba/joke-bot-go/internal/store"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a vote references an unknown joke id, e.g.
// after the store was reset between delivery and vote. Callers report it
// softly instead of failing the whole interaction.
var ErrNotFound = errors.New("joke not found")

// Direction is a vote direction.
type Direction string

const (
	Like    Direction = "like"
	Dislike Direction = "dislike"
)

// JokeRecord is a delivered joke plus its community tally. Seq records
// insertion order and provides the deterministic tie-break for ranking.
type JokeRecord struct {
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
	Seq       uint64 `json:"seq"`
}

// RankedJoke pairs a joke id with its record in a ranking result.
type RankedJoke struct {
	ID string
	JokeRecord
}

// IDGenerator produces candidate joke ids.
type IDGenerator func() string

// maxIDAttempts bounds collision retries with the primary generator before
// switching to the wider fallback id space.
const maxIDAttempts = 5

// Ledger owns the joke records and their community scores.
type Ledger struct {
	jokes    *store.Collection[JokeRecord]
	generate IDGenerator
	fallback IDGenerator
	logger   *zap.Logger
}

// NewLedger creates a rating ledger. generate produces ids in the primary id
// space; fallback must draw from a larger space and is used when generate
// keeps colliding.
func NewLedger(jokes *store.Collection[JokeRecord], generate, fallback IDGenerator, logger *zap.Logger) *Ledger {
	return &Ledger{
		jokes:    jokes,
		generate: generate,
		fallback: fallback,
		logger:   logger,
	}
}

// Insert persists a new joke with zero votes and returns its fresh id. The id
// is guaranteed not to collide with an existing record: generation retries
// under the collection lock and widens the id space when the primary one is
// too crowded.
func (l *Ledger) Insert(ctx context.Context, setup, punchline string) (string, error) {
	var id string

	err := l.jokes.Update(ctx, func(records map[string]JokeRecord) error {
		var ok bool

		id, ok = l.freshID(records)
		if !ok {
			return fmt.Errorf("exhausted joke id space after %d attempts", maxIDAttempts+1)
		}

		records[id] = JokeRecord{
			Setup:     setup,
			Punchline: punchline,
			Seq:       nextSeq(records),
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// ApplyVote increments the tally for the given direction and returns the
// updated record. Unknown ids yield ErrNotFound and leave the ledger
// unchanged.
func (l *Ledger) ApplyVote(ctx context.Context, id string, direction Direction) (JokeRecord, error) {
	var updated JokeRecord

	err := l.jokes.Update(ctx, func(records map[string]JokeRecord) error {
		record, ok := records[id]
		if !ok {
			return ErrNotFound
		}

		switch direction {
		case Dislike:
			record.Dislikes++
		default:
			record.Likes++
		}

		records[id] = record
		updated = record

		return nil
	})
	if err != nil {
		return JokeRecord{}, err
	}

	return updated, nil
}

// TopN returns up to n jokes ordered by likes descending, ties broken by
// insertion order. An empty ledger yields an empty slice, distinct from
// records that simply have zero likes.
func (l *Ledger) TopN(ctx context.Context, n int) ([]RankedJoke, error) {
	var ranked []RankedJoke

	err := l.jokes.View(ctx, func(records map[string]JokeRecord) error {
		ranked = make([]RankedJoke, 0, len(records))
		for id, record := range records {
			ranked = append(ranked, RankedJoke{ID: id, JokeRecord: record})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Likes != ranked[j].Likes {
			return ranked[i].Likes > ranked[j].Likes
		}

		return ranked[i].Seq < ranked[j].Seq
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	return ranked, nil
}

func (l *Ledger) freshID(records map[string]JokeRecord) (string, bool) {
	for range maxIDAttempts {
		id := l.generate()
		if _, exists := records[id]; !exists {
			return id, true
		}
	}

	l.logger.Warn("primary joke id space crowded, widening",
		zap.Int("records", len(records)),
	)

	id := l.fallback()
	if _, exists := records[id]; exists {
		return "", false
	}

	return id, true
}

func nextSeq(records map[string]JokeRecord) uint64 {
	var max uint64

	for _, record := range records {
		if record.Seq > max {
			max = record.Seq
		}
	}

	return max + 1
}
