package interactive

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/d4n3436/fergun/core/clock"
)

const (
	testSelf     int64 = 1
	testChat     int64 = 10
	testUser     int64 = 42
	testOutsider int64 = 7
)

type fakePlatform struct {
	mu sync.Mutex

	nextID int
	// fixedID, when non-zero, is returned for every send.
	fixedID int

	messages  map[MessageRef]OutgoingMessage
	sent      []MessageRef
	edits     []OutgoingMessage
	deleted   []MessageRef
	reactions map[MessageRef][]string
	cleared   []MessageRef

	sendErr  error
	reactErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID:    100,
		messages:  make(map[MessageRef]OutgoingMessage),
		reactions: make(map[MessageRef][]string),
	}
}

func (p *fakePlatform) SelfID() int64 { return testSelf }

func (p *fakePlatform) Send(_ context.Context, chatID int64, msg OutgoingMessage) (MessageRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return MessageRef{}, p.sendErr
	}
	id := p.fixedID
	if id == 0 {
		p.nextID++
		id = p.nextID
	}
	ref := MessageRef{ChatID: chatID, ID: id}
	p.messages[ref] = msg
	p.sent = append(p.sent, ref)
	return ref, nil
}

func (p *fakePlatform) Edit(_ context.Context, ref MessageRef, msg OutgoingMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.messages[ref]; !ok {
		return ErrMessageNotFound
	}
	p.messages[ref] = msg
	p.edits = append(p.edits, msg)
	return nil
}

func (p *fakePlatform) Delete(_ context.Context, ref MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.messages[ref]; !ok {
		return ErrMessageNotFound
	}
	delete(p.messages, ref)
	p.deleted = append(p.deleted, ref)
	return nil
}

func (p *fakePlatform) AddReaction(_ context.Context, ref MessageRef, emote string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.messages[ref]; !ok {
		return ErrMessageNotFound
	}
	if p.reactErr != nil {
		return p.reactErr
	}
	p.reactions[ref] = append(p.reactions[ref], emote)
	return nil
}

func (p *fakePlatform) ClearReactions(_ context.Context, ref MessageRef) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.messages[ref]; !ok {
		return ErrMessageNotFound
	}
	delete(p.reactions, ref)
	p.cleared = append(p.cleared, ref)
	return nil
}

func (p *fakePlatform) message(ref MessageRef) (OutgoingMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg, ok := p.messages[ref]
	return msg, ok
}

func (p *fakePlatform) editCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.edits)
}

func (p *fakePlatform) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakePlatform) deletedRefs() []MessageRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MessageRef(nil), p.deleted...)
}

func (p *fakePlatform) reactionsOn(ref MessageRef) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.reactions[ref]...)
}

type harness struct {
	platform *fakePlatform
	hub      *Hub
	clock    *clock.FakeClock
	reg      *Registry
	ic       InvocationContext
}

func newHarness(t *testing.T, opts RegistryOptions) *harness {
	t.Helper()
	h := &harness{
		platform: newFakePlatform(),
		hub:      NewHub(),
		clock:    clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		ic:       InvocationContext{ChannelID: testChat, UserID: testUser},
	}
	if opts.Clock == nil {
		opts.Clock = h.clock
	}
	h.reg = NewRegistry(h.platform, h.hub, opts)
	t.Cleanup(h.reg.Close)
	return h
}

func (h *harness) publish(t *testing.T, ev Event) {
	t.Helper()
	if err := h.hub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish %s: %v", ev.Kind, err)
	}
}

func press(ref MessageRef, actor int64, customID string) Event {
	return Event{Kind: EventComponent, Message: ref, ChannelID: ref.ChatID, ActorID: actor, CustomID: customID}
}

func react(ref MessageRef, actor int64, emote string) Event {
	return Event{Kind: EventReaction, Message: ref, ChannelID: ref.ChatID, ActorID: actor, Emote: emote}
}

func say(chat, actor int64, text string) Event {
	return Event{Kind: EventMessage, ChannelID: chat, ActorID: actor, Text: text}
}

func textPages(texts ...string) PageSource {
	pages := make([]Page, len(texts))
	for i, s := range texts {
		pages[i] = Page{Text: s}
	}
	return StaticPages(pages...)
}

func numberedPages(n int) PageSource {
	return LazyPages(n-1, func(_ context.Context, i int) (Page, bool, error) {
		return Page{Text: "content " + strconv.Itoa(i+1)}, true, nil
	})
}
