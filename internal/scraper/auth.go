package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"jobstreet-applied/internal/telemetry"
	"jobstreet-applied/lib/browser"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrAuthFailed = errors.New("authentication failed")
	ErrNavigation = errors.New("navigation failed")
)

type AuthState int

const (
	Navigating AuthState = iota
	AwaitingEmailSubmit
	AwaitingOTP
	Verified
	Failed
)

func (s AuthState) String() string {
	switch s {
	case Navigating:
		return "navigating"
	case AwaitingEmailSubmit:
		return "awaiting_email_submit"
	case AwaitingOTP:
		return "awaiting_otp"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// CodePrompter asks the operator for the one time passcode sent by email.
type CodePrompter interface {
	PromptCode(ctx context.Context) (string, error)
}

var otpPattern = regexp.MustCompile(`^\d{6}$`)

type Authenticator struct {
	actions  Actions
	prompter CodePrompter
	email    string
	tel      telemetry.API
}

func NewAuthenticator(actions Actions, prompter CodePrompter, email string, tel telemetry.API) Authenticator {
	return Authenticator{
		actions:  actions,
		prompter: prompter,
		email:    email,
		tel:      telemetry.NewScopedAPI("auth", tel),
	}
}

// Authenticate walks the login state machine until it is Verified or
// Failed. A Failed run returns an error wrapping ErrAuthFailed.
func (a Authenticator) Authenticate(ctx context.Context, s *Session) error {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	state := Navigating
	for {
		next, err := a.step(ctx, s, state)
		slog.DebugContext(ctx, "auth transition", "from", state, "to", next)

		if next == Verified {
			span.SetAttributes(attribute.String("auth.state", next.String()))
			return nil
		}
		if next == Failed {
			err = fmt.Errorf("%w in state %s: %w", ErrAuthFailed, state, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "authentication failed")
			a.tel.ReportBroken("failed", "state", state.String(), "err", err)
			return err
		}
		state = next
	}
}

func (a Authenticator) step(ctx context.Context, s *Session, state AuthState) (AuthState, error) {
	switch state {
	case Navigating:
		return a.navigate(ctx, s)
	case AwaitingEmailSubmit:
		return a.submitEmail(ctx, s)
	case AwaitingOTP:
		return a.awaitOTP(ctx, s)
	}
	return Failed, fmt.Errorf("unexpected state %s", state)
}

func (a Authenticator) navigate(ctx context.Context, s *Session) (AuthState, error) {
	navCtx, cancel := context.WithTimeout(ctx, s.Timings.Long)
	defer cancel()

	err := s.Browser.Navigate(navCtx, s.BaseURL)
	if err != nil {
		return Failed, fmt.Errorf("%w: %s: %w", ErrNavigation, s.BaseURL, err)
	}
	return AwaitingEmailSubmit, nil
}

func (a Authenticator) submitEmail(ctx context.Context, s *Session) (AuthState, error) {
	field, ok := a.actions.Locate(ctx, nil, emailField, s.Timings.Long)
	if !ok {
		if onResultsURL(ctx, s) {
			slog.InfoContext(ctx, "already logged in, skipping otp")
			return Verified, nil
		}
		return Failed, fmt.Errorf("email field did not appear")
	}

	err := s.Browser.Clear(ctx, field)
	if err != nil {
		return Failed, fmt.Errorf("clear email field: %w", err)
	}
	err = s.Browser.TypeText(ctx, field, a.email)
	if err != nil {
		return Failed, fmt.Errorf("type email: %w", err)
	}
	err = sleep(ctx, s.Timings.ClickSettle)
	if err != nil {
		return Failed, err
	}
	err = s.Browser.PressEnter(ctx, field)
	if err != nil {
		return Failed, fmt.Errorf("submit email: %w", err)
	}
	slog.InfoContext(ctx, "email submitted, waiting for otp")
	return AwaitingOTP, nil
}

// awaitOTP only loops on operator input, a rejected code is never submitted
// again without a new one.
func (a Authenticator) awaitOTP(ctx context.Context, s *Session) (AuthState, error) {
	for {
		if onResultsURL(ctx, s) {
			if a.actions.LocateAll(ctx, nil, jobItem, s.Timings.Long) == nil {
				return Failed, fmt.Errorf("job list did not render after login")
			}
			slog.InfoContext(ctx, "logged in from web page")
			return Verified, nil
		}

		code, err := a.prompter.PromptCode(ctx)
		if err != nil {
			return Failed, fmt.Errorf("prompt otp: %w", err)
		}
		code = strings.TrimSpace(code)
		if !otpPattern.MatchString(code) {
			a.tel.ReportWarning("otp.format", "len", len(code))
			continue
		}

		field, ok := a.actions.Locate(ctx, nil, otpField, s.Timings.Long)
		if !ok {
			return Failed, fmt.Errorf("otp field did not appear")
		}
		err = a.enterCode(ctx, s, field, code)
		if err != nil {
			return Failed, err
		}

		if alert, ok := a.actions.Exists(ctx, nil, otpAlert); ok {
			text, err := alert.Text(ctx)
			if err == nil && strings.Contains(strings.ToLower(text), invalidCodeMarker) {
				a.tel.ReportWarning("otp.invalid")
				continue
			}
		}

		if a.actions.LocateAll(ctx, nil, jobItem, s.Timings.Long) == nil {
			return Failed, fmt.Errorf("job list did not render after otp")
		}
		slog.InfoContext(ctx, "logged in with otp")
		return Verified, nil
	}
}

func (a Authenticator) enterCode(ctx context.Context, s *Session, field browser.Element, code string) error {
	if !a.actions.Click(ctx, field) {
		a.tel.ReportWarning("otp.focus")
	}
	err := s.Browser.Clear(ctx, field)
	if err != nil {
		return fmt.Errorf("clear otp field: %w", err)
	}
	for _, digit := range code {
		err = s.Browser.TypeText(ctx, field, string(digit))
		if err != nil {
			return fmt.Errorf("type otp: %w", err)
		}
		err = sleep(ctx, s.Timings.Keystroke)
		if err != nil {
			return err
		}
	}
	return sleep(ctx, s.Timings.OTPSettle)
}

func onResultsURL(ctx context.Context, s *Session) bool {
	current, err := s.Browser.CurrentURL(ctx)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(current), resultsURLMarker)
}
