package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/mailagent/go/internal/delivery"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
)

type fakeGenerator struct {
	drafts []*models.EmailDraft
	err    error
	reqs   []models.GenerationRequest
}

func (f *fakeGenerator) Generate(_ context.Context, req models.GenerationRequest) (*models.EmailDraft, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	d := f.drafts[0]
	f.drafts = f.drafts[1:]
	return d, nil
}

type fakeDeliverer struct {
	sendErr   error
	sent      []models.DeliveryTarget
	scheduled []models.ScheduledSend
}

func (f *fakeDeliverer) SendNow(_ context.Context, target models.DeliveryTarget, _ models.EmailDraft) (*models.Confirmation, error) {
	f.sent = append(f.sent, target)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.Confirmation{Recipient: target.Recipient, Message: "Sent successfully to " + target.Recipient + "."}, nil
}

func (f *fakeDeliverer) ScheduleSend(_ context.Context, fireAt time.Time, target models.DeliveryTarget, draft models.EmailDraft, opts ...delivery.ScheduleOption) (*models.ScheduleResult, error) {
	send := models.ScheduledSend{FireAt: fireAt, Target: target, Draft: draft}
	for _, opt := range opts {
		opt(&send)
	}
	f.scheduled = append(f.scheduled, send)
	return &models.ScheduleResult{Ack: &models.ScheduleAck{
		FireAt:    fireAt,
		Recipient: target.Recipient,
		Message:   "Email scheduled for later to " + target.Recipient + ".",
	}}, nil
}

func newTestAgent(gen *fakeGenerator, del *fakeDeliverer) (*Agent, *MemoryStore) {
	store := NewMemoryStore()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC))
	return NewAgent(store, gen, del, clock, Defaults{}), store
}

func TestStartSeedsWelcome(t *testing.T) {
	agent, _ := newTestAgent(&fakeGenerator{}, &fakeDeliverer{})

	s, err := agent.Start(context.Background())
	require.NoError(t, err)

	require.Len(t, s.Chat, 1)
	assert.Equal(t, RoleAssistant, s.Chat[0].Role)
	assert.Contains(t, s.Chat[0].Content, "Hi, I'm your email automation bot.")
	assert.Contains(t, s.Chat[0].Content, "3. Then you can send it immediately or schedule it for later.")
	assert.Equal(t, models.ToneBusiness, s.Tone)
	assert.Equal(t, "English", s.Language)
	assert.Nil(t, s.Draft)
}

func TestGenerateReplacesDraft(t *testing.T) {
	gen := &fakeGenerator{drafts: []*models.EmailDraft{
		{Subject: "First", Body: "One"},
		{Subject: "Second", Body: "Two"},
	}}
	agent, _ := newTestAgent(gen, &fakeDeliverer{})
	ctx := context.Background()
	s, err := agent.Start(ctx)
	require.NoError(t, err)

	_, err = agent.Generate(ctx, s.ID, GenerateInput{Instruction: "first", Tone: "Friendly", Language: "Spanish"})
	require.NoError(t, err)
	reply, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "second"})
	require.NoError(t, err)

	assert.Equal(t, &models.EmailDraft{Subject: "Second", Body: "Two"}, reply.Draft)
	assert.Contains(t, reply.Message.Content, "Here's your draft:")
	assert.Contains(t, reply.Message.Content, "**Subject:** Second")
	assert.Contains(t, reply.Message.Content, "Now type the recipient email")

	got, err := agent.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, &models.EmailDraft{Subject: "Second", Body: "Two"}, got.Draft)
	assert.Len(t, got.Chat, 5)

	// style sticks to the session once chosen
	require.Len(t, gen.reqs, 2)
	assert.Equal(t, models.ToneFriendly, gen.reqs[1].Tone)
	assert.Equal(t, "Spanish", gen.reqs[1].Language)
}

func TestGenerateFailureKeepsDraft(t *testing.T) {
	gen := &fakeGenerator{drafts: []*models.EmailDraft{{Subject: "Keep", Body: "Me"}}}
	agent, _ := newTestAgent(gen, &fakeDeliverer{})
	ctx := context.Background()
	s, _ := agent.Start(ctx)

	_, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "ok"})
	require.NoError(t, err)

	gen.err = mailerr.New(mailerr.KindConfig, "llm", "GEMINI_API_KEY is missing. Put it in a .env file.")
	reply, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "again"})
	require.Error(t, err)
	assert.True(t, mailerr.Is(err, mailerr.KindConfig))
	require.NotNil(t, reply)
	assert.Contains(t, reply.Message.Content, "I tried to build the email but hit a problem:")
	assert.Contains(t, reply.Message.Content, "GEMINI_API_KEY is missing")
	assert.Contains(t, reply.Message.Content, "Check your Gemini API key and try again.")

	got, _ := agent.Get(ctx, s.ID)
	assert.Equal(t, "Keep", got.Draft.Subject)
}

func TestGenerateRejectsUnknownTone(t *testing.T) {
	gen := &fakeGenerator{}
	agent, _ := newTestAgent(gen, &fakeDeliverer{})
	ctx := context.Background()
	s, _ := agent.Start(ctx)

	reply, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "x", Tone: "sarcastic"})
	assert.Nil(t, reply)
	assert.True(t, mailerr.Is(err, mailerr.KindInvalidInput))
	assert.Empty(t, gen.reqs)

	got, _ := agent.Get(ctx, s.ID)
	assert.Len(t, got.Chat, 1)
}

func TestSendNow(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		sendErr   error
		wantKind  mailerr.Kind
		wantMsg   string
		wantSends int
	}{
		{
			name:      "sent",
			recipient: "bob@example.com",
			wantMsg:   "Sent successfully to bob@example.com.",
			wantSends: 1,
		},
		{
			name:      "missing recipient",
			recipient: "  ",
			wantKind:  mailerr.KindInvalidInput,
			wantMsg:   "I need the recipient email before I can send.",
		},
		{
			name:      "transport failure",
			recipient: "bob@example.com",
			sendErr:   mailerr.Wrap(mailerr.KindTransport, "smtp.send", "Send failed", errors.New("timeout")),
			wantKind:  mailerr.KindTransport,
			wantMsg:   "Send failed: timeout",
			wantSends: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			del := &fakeDeliverer{sendErr: tt.sendErr}
			agent, _ := newTestAgent(&fakeGenerator{drafts: []*models.EmailDraft{{Subject: "S", Body: "B"}}}, del)
			ctx := context.Background()
			s, _ := agent.Start(ctx)
			_, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "x"})
			require.NoError(t, err)

			reply, err := agent.SendNow(ctx, s.ID, tt.recipient)
			if tt.wantKind != "" {
				assert.True(t, mailerr.Is(err, tt.wantKind))
			} else {
				require.NoError(t, err)
				assert.NotNil(t, reply.Confirmation)
			}
			require.NotNil(t, reply)
			assert.Equal(t, tt.wantMsg, reply.Message.Content)
			assert.Len(t, del.sent, tt.wantSends)

			got, _ := agent.Get(ctx, s.ID)
			assert.Equal(t, tt.wantMsg, got.Chat[len(got.Chat)-1].Content)
		})
	}
}

func TestSendWithoutDraft(t *testing.T) {
	del := &fakeDeliverer{}
	agent, _ := newTestAgent(&fakeGenerator{}, del)
	ctx := context.Background()
	s, _ := agent.Start(ctx)

	_, err := agent.SendNow(ctx, s.ID, "bob@example.com")
	assert.True(t, mailerr.Is(err, mailerr.KindInvalidInput))
	assert.Empty(t, del.sent)
}

func TestScheduleTagsSession(t *testing.T) {
	del := &fakeDeliverer{}
	agent, _ := newTestAgent(&fakeGenerator{drafts: []*models.EmailDraft{{Subject: "S", Body: "B"}}}, del)
	ctx := context.Background()
	s, _ := agent.Start(ctx)
	_, err := agent.Generate(ctx, s.ID, GenerateInput{Instruction: "x"})
	require.NoError(t, err)

	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	reply, err := agent.Schedule(ctx, s.ID, "bob@example.com", at)
	require.NoError(t, err)
	require.NotNil(t, reply.Schedule)
	assert.Equal(t, "Email scheduled for later to bob@example.com.", reply.Message.Content)

	require.Len(t, del.scheduled, 1)
	assert.Equal(t, s.ID, del.scheduled[0].SessionID)
	assert.Equal(t, at, del.scheduled[0].FireAt)

	reply, err = agent.Schedule(ctx, s.ID, "", at)
	assert.True(t, mailerr.Is(err, mailerr.KindInvalidInput))
	assert.Equal(t, "I need the recipient email before scheduling.", reply.Message.Content)
	assert.Len(t, del.scheduled, 1)
}

func TestUnknownSession(t *testing.T) {
	agent, _ := newTestAgent(&fakeGenerator{}, &fakeDeliverer{})
	_, err := agent.Generate(context.Background(), "nope", GenerateInput{Instruction: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	s := &Session{ID: "a", Draft: &models.EmailDraft{Subject: "S", Body: "B"}}
	require.NoError(t, store.Create(ctx, s))
	assert.ErrorIs(t, store.Create(ctx, s), ErrExists)

	s.Draft.Subject = "mutated"
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "S", got.Draft.Subject)

	got.Chat = append(got.Chat, ChatMessage{Content: "x"})
	again, _ := store.Get(ctx, "a")
	assert.Empty(t, again.Chat)

	assert.ErrorIs(t, store.Update(ctx, &Session{ID: "b"}), ErrNotFound)
}
