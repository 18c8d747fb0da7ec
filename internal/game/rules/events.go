package rules

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// EventKind is the closed set of rules events.
type EventKind string

const (
	EventDraw             EventKind = "DRAW"
	EventZoneChange       EventKind = "ZONE_CHANGE"
	EventDamage           EventKind = "DAMAGE"
	EventAbilityActivated EventKind = "ABILITY_ACTIVATED"
	EventGameLost         EventKind = "GAME_LOST"
)

// EventCategory groups event kinds for replacement filtering.
type EventCategory string

const (
	CategoryDraw       EventCategory = "DRAW"
	CategoryZoneChange EventCategory = "ZONE_CHANGE"
	CategoryDamage     EventCategory = "DAMAGE"
	CategoryAbility    EventCategory = "ABILITY"
	CategoryLoss       EventCategory = "LOSS"
)

var kindCategories = map[EventKind]EventCategory{
	EventDraw:             CategoryDraw,
	EventZoneChange:       CategoryZoneChange,
	EventDamage:           CategoryDamage,
	EventAbilityActivated: CategoryAbility,
	EventGameLost:         CategoryLoss,
}

// Category returns the fixed category of the kind. Unknown kinds have none.
func (k EventKind) Category() EventCategory {
	return kindCategories[k]
}

// Valid reports whether k is one of the declared kinds.
func (k EventKind) Valid() bool {
	_, ok := kindCategories[k]
	return ok
}

// AllEventCategories returns every category.
func AllEventCategories() []EventCategory {
	return []EventCategory{CategoryDraw, CategoryZoneChange, CategoryDamage, CategoryAbility, CategoryLoss}
}

// ParseEventCategory resolves a category from its string form.
func ParseEventCategory(s string) (EventCategory, bool) {
	c := EventCategory(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllEventCategories() {
		if known == c {
			return c, true
		}
	}
	return "", false
}

// Event is a rules event. Which fields are meaningful depends on Kind:
//
//	DRAW               Player, Card
//	ZONE_CHANGE        Player, Card, From, To, Placement
//	DAMAGE             Player (target), Amount, SourceCard (optional)
//	ABILITY_ACTIVATED  Player, SourceCard, AbilityIndex
//	GAME_LOST          Player, Reason
//
// Events are values. Replacing an event produces a new value; Applied holds the
// keys of replacement effects already applied to this event and is never
// mutated in place.
type Event struct {
	Kind         EventKind
	Player       PlayerID
	Card         CardInstanceID
	From         ZoneType
	To           ZoneType
	Placement    Placement
	Amount       int
	SourceCard   CardInstanceID
	AbilityIndex int
	Reason       string
	Applied      []string
}

// NewDrawEvent records that player drew card.
func NewDrawEvent(player PlayerID, card CardInstanceID) Event {
	return Event{Kind: EventDraw, Player: player, Card: card}
}

// NewZoneChangeEvent records that card moved between two of player's zones.
func NewZoneChangeEvent(player PlayerID, card CardInstanceID, from, to ZoneType, placement Placement) Event {
	return Event{Kind: EventZoneChange, Player: player, Card: card, From: from, To: to, Placement: placement}
}

// NewDamageEvent deals amount damage to target. source may be NoCard.
func NewDamageEvent(target PlayerID, amount int, source CardInstanceID) Event {
	return Event{Kind: EventDamage, Player: target, Amount: amount, SourceCard: source}
}

// NewAbilityActivatedEvent records the activation of an ability of source.
func NewAbilityActivatedEvent(player PlayerID, source CardInstanceID, abilityIndex int) Event {
	return Event{Kind: EventAbilityActivated, Player: player, SourceCard: source, AbilityIndex: abilityIndex}
}

// NewGameLostEvent records that player lost for reason.
func NewGameLostEvent(player PlayerID, reason string) Event {
	return Event{Kind: EventGameLost, Player: player, Reason: reason}
}

// Category returns the event's category.
func (e Event) Category() EventCategory {
	return e.Kind.Category()
}

// HasApplied reports whether the replacement effect key was already applied.
func (e Event) HasApplied(key string) bool {
	return slices.Contains(e.Applied, key)
}

// WithApplied returns a copy that additionally records keys as applied.
func (e Event) WithApplied(keys ...string) Event {
	applied := append([]string(nil), e.Applied...)
	for _, key := range keys {
		if !slices.Contains(applied, key) {
			applied = append(applied, key)
		}
	}
	e.Applied = applied
	return e
}

// WithoutApplied returns a copy with no applied keys.
func (e Event) WithoutApplied() Event {
	e.Applied = nil
	return e
}

// Clone returns a copy that shares no storage with e.
func (e Event) Clone() Event {
	e.Applied = append([]string(nil), e.Applied...)
	if len(e.Applied) == 0 {
		e.Applied = nil
	}
	return e
}

// Equal reports whether two events carry the same data.
func (e Event) Equal(o Event) bool {
	return e.Kind == o.Kind &&
		e.Player == o.Player &&
		e.Card == o.Card &&
		e.From == o.From &&
		e.To == o.To &&
		e.Placement == o.Placement &&
		e.Amount == o.Amount &&
		e.SourceCard == o.SourceCard &&
		e.AbilityIndex == o.AbilityIndex &&
		e.Reason == o.Reason &&
		slices.Equal(e.Applied, o.Applied)
}

func (e Event) String() string {
	switch e.Kind {
	case EventDraw:
		return fmt.Sprintf("DRAW(player=%d card=%d)", e.Player, e.Card)
	case EventZoneChange:
		return fmt.Sprintf("ZONE_CHANGE(player=%d card=%d %s->%s %s)", e.Player, e.Card, e.From, e.To, e.Placement)
	case EventDamage:
		return fmt.Sprintf("DAMAGE(target=%d amount=%d source=%d)", e.Player, e.Amount, e.SourceCard)
	case EventAbilityActivated:
		return fmt.Sprintf("ABILITY_ACTIVATED(player=%d source=%d index=%d)", e.Player, e.SourceCard, e.AbilityIndex)
	case EventGameLost:
		return fmt.Sprintf("GAME_LOST(player=%d reason=%q)", e.Player, e.Reason)
	default:
		return fmt.Sprintf("EVENT_%s(player=%d)", string(e.Kind), e.Player)
	}
}

// Listener receives published events.
type Listener func(Event)

// CategoryListener is a listener bound to one event category.
type CategoryListener struct {
	Handle   int
	Category EventCategory
	Callback func(Event)
}

// EventBus fans resolved events out to observers synchronously. It sits
// outside the state transition: listeners observe, they never mutate state.
type EventBus struct {
	mu                sync.RWMutex
	listeners         map[int]Listener
	categoryListeners map[EventCategory][]CategoryListener
	nextHandle        int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:         make(map[int]Listener),
		categoryListeners: make(map[EventCategory][]CategoryListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeCategory registers a listener for one event category.
func (bus *EventBus) SubscribeCategory(category EventCategory, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.categoryListeners[category] = append(bus.categoryListeners[category], CategoryListener{
		Handle:   handle,
		Category: category,
		Callback: callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by handle, whichever kind it is.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for category, listeners := range bus.categoryListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.categoryListeners[category] = append(listeners[:i:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners in subscription
// order. Listeners run without the bus lock held.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for handle := range bus.listeners {
		handles = append(handles, handle)
	}
	slices.Sort(handles)
	listeners := make([]Listener, 0, len(handles))
	for _, handle := range handles {
		listeners = append(listeners, bus.listeners[handle])
	}
	categoryListeners := slices.Clone(bus.categoryListeners[event.Category()])
	bus.mu.RUnlock()

	for _, listener := range listeners {
		listener(event.Clone())
	}
	for _, listener := range categoryListeners {
		listener.Callback(event.Clone())
	}
}

// PublishBatch publishes events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
