package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"go.ngs.io/oraip-profiles/internal/domain"
)

func testCollection() *domain.Collection {
	layers := []domain.Layer{{Upper: 0, Lower: 100}, {Upper: 100, Lower: 300}}
	p := domain.Profiles{
		T: domain.NewProfileVariable(domain.Temperature, layers),
		S: domain.NewProfileVariable(domain.Salinity, layers),
	}
	p.T.Values[0] = domain.Some(1.5)
	p.S.Values[0] = domain.Some(34.8)
	p.S.Values[1] = domain.Some(34.9)

	return &domain.Collection{
		ID:        domain.CollectionID([]string{"ECDA"}, domain.Arctic, 1993, 2010),
		RunID:     uuid.NewString(),
		Created:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Basin:     domain.Arctic,
		StartYear: 1993,
		EndYear:   2010,
		Products:  []*domain.Dataset{{Name: "ECDA", Legend: "ECDA3", Basin: domain.Arctic, Profiles: p}},
	}
}

func TestSaveLoad(t *testing.T) {
	s := New(t.TempDir())
	c := testCollection()
	if err := s.Save(c); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(c.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != c.RunID || got.Basin != domain.Arctic {
		t.Errorf("unexpected metadata: %+v", got)
	}
	prof := got.Products[0].Profile(domain.Temperature)
	if prof.Quantity != domain.Temperature {
		t.Errorf("expected quantity T, got %s", prof.Quantity)
	}
	if v, ok := prof.Values[0].Get(); !ok || v != 1.5 {
		t.Errorf("expected 1.5, got %v", prof.Values[0])
	}
	if !prof.Values[1].IsMissing() {
		t.Errorf("expected missing value to survive the cache, got %v", prof.Values[1])
	}
}

func TestLoadMissing(t *testing.T) {
	s := New(t.TempDir())
	if _, err := s.Load("nothing_1993-2010_Arctic"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.Remove("nothing_1993-2010_Arctic"); err != nil {
		t.Errorf("Remove of missing entry: %v", err)
	}
}
