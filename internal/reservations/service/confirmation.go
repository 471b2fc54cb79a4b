package service

import (
	"context"
	"fmt"

	"studiobook/internal/reservations/repository"
	"studiobook/pkg/config"
)

type Confirmation struct {
	Code string
	Year int
	Seq  int
}

// ConfirmationGenerator issues PREFIX-YEAR-SEQ codes. Next must run inside the
// transaction that stores the code.
type ConfirmationGenerator struct {
	reservations repository.ReservationRepository
	counters     repository.CounterRepository
	prefix       string
	width        int
}

func NewConfirmationGenerator(store *repository.Store, cfg *config.Config) *ConfirmationGenerator {
	return &ConfirmationGenerator{
		reservations: store.Reservations,
		counters:     store.Counters,
		prefix:       cfg.ConfirmationPrefix,
		width:        cfg.ConfirmationWidth,
	}
}

// Next advances the per-year counter, never below the highest sequence already
// stored for that year.
func (g *ConfirmationGenerator) Next(ctx context.Context, year int) (Confirmation, error) {
	floor, err := g.reservations.MaxConfirmationSequenceForYear(ctx, year, g.prefix)
	if err != nil {
		return Confirmation{}, err
	}
	seq, err := g.counters.Next(ctx, g.prefix, year, floor)
	if err != nil {
		return Confirmation{}, err
	}
	return Confirmation{
		Code: FormatConfirmation(g.prefix, year, seq, g.width),
		Year: year,
		Seq:  seq,
	}, nil
}

func FormatConfirmation(prefix string, year, seq, width int) string {
	return fmt.Sprintf("%s-%d-%0*d", prefix, year, width, seq)
}
