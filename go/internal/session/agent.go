package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/mailagent/go/internal/delivery"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
	"github.com/mcdev12/mailagent/go/internal/models"
)

const welcomeMessage = "Hi, I'm your email automation bot. 👋\n\n" +
	"1. Tell me what email you want to send (who, why, key points).\n" +
	"2. I'll generate the subject and body in the style you chose.\n" +
	"3. Then you can send it immediately or schedule it for later."

// DraftGenerator produces a validated draft from one instruction.
type DraftGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.EmailDraft, error)
}

// Deliverer sends drafts now or later.
type Deliverer interface {
	SendNow(ctx context.Context, target models.DeliveryTarget, draft models.EmailDraft) (*models.Confirmation, error)
	ScheduleSend(ctx context.Context, fireAt time.Time, target models.DeliveryTarget, draft models.EmailDraft, opts ...delivery.ScheduleOption) (*models.ScheduleResult, error)
}

// Defaults are the style values used when a request leaves them out.
type Defaults struct {
	Tone     models.Tone
	Language string
}

// Reply is the outcome of one turn. It is returned together with a domain error whenever the
// turn still appended an assistant message, so callers can show it.
type Reply struct {
	Message      ChatMessage            `json:"message"`
	Draft        *models.EmailDraft     `json:"draft,omitempty"`
	Confirmation *models.Confirmation   `json:"confirmation,omitempty"`
	Schedule     *models.ScheduleResult `json:"schedule,omitempty"`
}

// Agent runs conversation turns. Turns on the same session are serialized.
type Agent struct {
	store     Store
	generator DraftGenerator
	deliverer Deliverer
	clock     clockwork.Clock
	defaults  Defaults

	locks sync.Map // session id -> *sync.Mutex
}

func NewAgent(store Store, generator DraftGenerator, deliverer Deliverer, clock clockwork.Clock, defaults Defaults) *Agent {
	if defaults.Tone == "" {
		defaults.Tone = models.DefaultTone
	}
	if defaults.Language == "" {
		defaults.Language = "English"
	}
	return &Agent{
		store:     store,
		generator: generator,
		deliverer: deliverer,
		clock:     clock,
		defaults:  defaults,
	}
}

// Start creates a session seeded with the welcome message.
func (a *Agent) Start(ctx context.Context) (*Session, error) {
	now := a.clock.Now()
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		Tone:      a.defaults.Tone,
		Language:  a.defaults.Language,
	}
	s.add(RoleAssistant, welcomeMessage, now)

	if err := a.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().Str("session_id", s.ID).Msg("session started")
	return s, nil
}

// Get returns a snapshot of the session.
func (a *Agent) Get(ctx context.Context, id string) (*Session, error) {
	return a.store.Get(ctx, id)
}

// GenerateInput is one drafting instruction. Empty Tone or Language keep the session style.
type GenerateInput struct {
	Instruction string
	Tone        string
	Language    string
}

// Generate drafts an email from the instruction. A successful run replaces the session draft;
// a failed one leaves the previous draft in place.
func (a *Agent) Generate(ctx context.Context, sessionID string, in GenerateInput) (*Reply, error) {
	unlock := a.lock(sessionID)
	defer unlock()

	s, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tone := s.Tone
	if strings.TrimSpace(in.Tone) != "" {
		if tone, err = models.ParseTone(in.Tone); err != nil {
			return nil, mailerr.Wrap(mailerr.KindInvalidInput, "session.generate", "Unsupported tone", err)
		}
	}
	language := s.Language
	if l := strings.TrimSpace(in.Language); l != "" {
		language = l
	}
	s.Tone, s.Language = tone, language

	s.add(RoleUser, in.Instruction, a.clock.Now())

	draft, genErr := a.generator.Generate(ctx, models.GenerationRequest{
		Instruction: in.Instruction,
		Tone:        tone,
		Language:    language,
	})

	reply := &Reply{}
	if genErr != nil {
		reply.Message = s.add(RoleAssistant, fmt.Sprintf(
			"I tried to build the email but hit a problem:\n\n`%s`\n\nCheck your Gemini API key and try again.",
			genErr.Error(),
		), a.clock.Now())
	} else {
		s.Draft = draft
		reply.Draft = draft
		reply.Message = s.add(RoleAssistant, fmt.Sprintf(
			"Here's your draft:\n\n**Subject:** %s\n\n**Body:**\n\n%s\n\n"+
				"Now type the recipient email and choose **Send now** or **Schedule send**.",
			draft.Subject, draft.Body,
		), a.clock.Now())
	}

	if err := a.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return reply, genErr
}

// SendNow delivers the current draft to recipient immediately.
func (a *Agent) SendNow(ctx context.Context, sessionID, recipient string) (*Reply, error) {
	unlock := a.lock(sessionID)
	defer unlock()

	s, err := a.loadWithDraft(ctx, sessionID, "session.send")
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	var sendErr error
	if strings.TrimSpace(recipient) == "" {
		sendErr = mailerr.New(mailerr.KindInvalidInput, "session.send", "I need the recipient email before I can send.")
		reply.Message = s.add(RoleAssistant, sendErr.Error(), a.clock.Now())
	} else {
		conf, err := a.deliverer.SendNow(ctx, models.DeliveryTarget{Recipient: recipient}, *s.Draft)
		if err != nil {
			sendErr = err
			reply.Message = s.add(RoleAssistant, err.Error(), a.clock.Now())
		} else {
			reply.Confirmation = conf
			reply.Message = s.add(RoleAssistant, conf.Message, a.clock.Now())
		}
	}

	if err := a.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return reply, sendErr
}

// Schedule delivers the current draft at sendAt, or now when sendAt is not in the future.
func (a *Agent) Schedule(ctx context.Context, sessionID, recipient string, sendAt time.Time) (*Reply, error) {
	unlock := a.lock(sessionID)
	defer unlock()

	s, err := a.loadWithDraft(ctx, sessionID, "session.schedule")
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	var schedErr error
	if strings.TrimSpace(recipient) == "" {
		schedErr = mailerr.New(mailerr.KindInvalidInput, "session.schedule", "I need the recipient email before scheduling.")
		reply.Message = s.add(RoleAssistant, schedErr.Error(), a.clock.Now())
	} else {
		res, err := a.deliverer.ScheduleSend(ctx, sendAt, models.DeliveryTarget{Recipient: recipient}, *s.Draft,
			delivery.WithSessionID(s.ID))
		if err != nil {
			schedErr = err
			reply.Message = s.add(RoleAssistant, err.Error(), a.clock.Now())
		} else {
			reply.Schedule = res
			reply.Message = s.add(RoleAssistant, res.Message(), a.clock.Now())
		}
	}

	if err := a.store.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return reply, schedErr
}

func (a *Agent) loadWithDraft(ctx context.Context, sessionID, op string) (*Session, error) {
	s, err := a.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Draft == nil {
		return nil, mailerr.New(mailerr.KindInvalidInput, op, "There is no draft yet. Describe the email you want first.")
	}
	return s, nil
}

func (a *Agent) lock(sessionID string) func() {
	v, _ := a.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
