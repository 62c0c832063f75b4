package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/shared/identity"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

var (
	builtinSuits = []string{"Clubs", "Diamonds", "Hearts", "Spades"}
	builtinRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// Card is one entry of the built-in deck.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// Seeder populates an empty games root.
type Seeder struct {
	storage Storage
	log     *zap.Logger
}

// NewSeeder creates a seeder over storage.
func NewSeeder(storage Storage, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{storage: storage, log: log}
}

// Seed copies the bundled default set. When none is bundled it writes the
// built-in Standard package instead.
func (s *Seeder) Seed() error {
	n, err := s.storage.SeedDefaults()
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	if n > 0 {
		s.log.Info("Seeded default packages", zap.Int("count", n))
		return nil
	}
	dir, err := s.writeBuiltin()
	if err != nil {
		return fmt.Errorf("write built-in package: %w", err)
	}
	s.log.Info("Wrote built-in package", zap.String("dir", dir))
	return nil
}

func (s *Seeder) writeBuiltin() (string, error) {
	dir := paths.Package(s.storage.Root(), identity.Encode(catalog.DefaultName, ""))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	desc, err := sonic.ConfigStd.MarshalIndent(map[string]string{"name": catalog.DefaultName}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, paths.DescriptorJSON), desc, 0o644); err != nil {
		return "", err
	}

	cards, err := sonic.ConfigStd.MarshalIndent(StandardDeck(), "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(paths.Page(dir, 0), cards, 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// StandardDeck returns the 52 cards of the built-in package.
func StandardDeck() []Card {
	deck := make([]Card, 0, len(builtinSuits)*len(builtinRanks))
	for _, suit := range builtinSuits {
		for _, rank := range builtinRanks {
			deck = append(deck, Card{
				ID:   rank + suit[:1],
				Name: rank + " of " + suit,
				Suit: suit,
				Rank: rank,
			})
		}
	}
	return deck
}
