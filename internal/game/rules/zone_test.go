package rules

import "testing"

func TestZoneAddAndRemove(t *testing.T) {
	a := mustCard(t, 1, 1, testHolomem)
	b := mustCard(t, 2, 1, testHolomem)
	c := mustCard(t, 3, 1, testHolomem)

	zone := NewZone(1, ZoneDeck, a)
	zone = zone.WithCardAddedToTop(b).WithCardAddedToBottom(c)

	cards := zone.Cards()
	if len(cards) != 3 || cards[0].ID != 3 || cards[1].ID != 1 || cards[2].ID != 2 {
		t.Fatalf("unexpected order %v", cards)
	}
	top, ok := zone.Top()
	if !ok || top.ID != 2 {
		t.Fatalf("expected top card 2, got %v", top)
	}

	removed, ok := zone.WithCardRemoved(1)
	if !ok || removed.Len() != 2 || removed.Contains(1) {
		t.Fatalf("expected card 1 removed, got %v", removed.Cards())
	}
	if zone.Len() != 3 {
		t.Fatalf("original zone modified: %d cards", zone.Len())
	}

	if _, ok := zone.WithCardRemoved(99); ok {
		t.Fatalf("expected removal of missing card to fail")
	}

	rest, card, ok := zone.WithTopCardRemoved()
	if !ok || card.ID != 2 || rest.Len() != 2 {
		t.Fatalf("unexpected top removal: %v %v", card, rest.Cards())
	}

	if _, _, ok := NewZone(1, ZoneHand).WithTopCardRemoved(); ok {
		t.Fatalf("expected empty zone to have no top card")
	}
}

func TestZoneCardsIsACopy(t *testing.T) {
	zone := NewZone(1, ZoneHand, mustCard(t, 1, 1, testHolomem))
	cards := zone.Cards()
	cards[0] = mustCard(t, 9, 1, testHolomem)
	if !zone.Contains(1) || zone.Contains(9) {
		t.Fatalf("zone storage aliased by Cards()")
	}
}

func TestZoneShuffleIsDeterministic(t *testing.T) {
	var cards []CardInstance
	for i := 1; i <= 20; i++ {
		cards = append(cards, mustCard(t, CardInstanceID(i), 1, testHolomem))
	}
	zone := NewZone(1, ZoneDeck, cards...)

	first := zone.Shuffled(NewXorshift(7)).Cards()
	second := zone.Shuffled(NewXorshift(7)).Cards()
	seen := make(map[CardInstanceID]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("same seed produced different order at %d", i)
		}
		seen[first[i].ID] = true
	}
	if len(seen) != 20 {
		t.Fatalf("shuffle lost cards: %d distinct", len(seen))
	}
}

func TestZonePlacement(t *testing.T) {
	zone := NewZone(1, ZoneDeck, mustCard(t, 1, 1, testHolomem), mustCard(t, 2, 1, testHolomem))
	card := mustCard(t, 3, 1, testHolomem)

	shuffled, err := zone.WithCardPlaced(card, PlacementShuffleInto, NewXorshift(3))
	if err != nil {
		t.Fatalf("shuffle into: %v", err)
	}
	if shuffled.Len() != 3 || !shuffled.Contains(3) {
		t.Fatalf("expected card shuffled in, got %v", shuffled.Cards())
	}

	if _, err := zone.WithCardPlaced(card, PlacementShuffleInto, nil); err == nil {
		t.Fatalf("expected error without random source")
	}

	bottom, err := zone.WithCardPlaced(card, PlacementBottom, nil)
	if err != nil {
		t.Fatalf("bottom: %v", err)
	}
	if bottom.Cards()[0].ID != 3 {
		t.Fatalf("expected card at bottom, got %v", bottom.Cards())
	}
}

func TestZoneTypeNames(t *testing.T) {
	if len(AllZoneTypes()) != 9 {
		t.Fatalf("expected nine zone types, got %d", len(AllZoneTypes()))
	}
	for _, zt := range AllZoneTypes() {
		parsed, ok := ParseZoneType(zt.String())
		if !ok || parsed != zt {
			t.Fatalf("round trip of %s failed", zt)
		}
	}
	if got := (ZoneID{Player: 2, Type: ZoneBackStage}).String(); got != "P2:BACK_STAGE" {
		t.Fatalf("unexpected zone id string %q", got)
	}
}
