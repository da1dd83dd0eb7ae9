package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/contacts-api/internal/domain"
)

type Service struct {
	users    AccountStore
	hasher   PasswordHasher
	signer   TokenIssuer
	vtokens  VerificationTokenGenerator
	mailer   Mailer
	dispatch Dispatcher

	audit func(ctx context.Context, action string, fields map[string]string)
	lg    zerolog.Logger

	// Public base URL used to build links sent by mail,
	// e.g. https://api.example.com -> https://api.example.com/api/users/verify/<token>
	publicBaseURL string
	mailTimeout   time.Duration

	dummyOnce sync.Once
	dummyHash string
}

type Config struct {
	PublicBaseURL string
	MailTimeout   time.Duration
}

func NewService(
	users AccountStore,
	hasher PasswordHasher,
	signer TokenIssuer,
	vtokens VerificationTokenGenerator,
	mailer Mailer,
	dispatch Dispatcher,
	cfg Config,
) *Service {
	mailTimeout := cfg.MailTimeout
	if mailTimeout <= 0 {
		mailTimeout = 10 * time.Second
	}
	if dispatch == nil {
		dispatch = goDispatcher{}
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		signer:   signer,
		vtokens:  vtokens,
		mailer:   mailer,
		dispatch: dispatch,
		audit:    func(context.Context, string, map[string]string) {},
		lg:       zerolog.Nop(),

		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		mailTimeout:   mailTimeout,
	}
}

// RegisterResult is the newly created account plus its subscription label.
type RegisterResult struct {
	User         domain.User
	Subscription domain.Subscription
}

type LoginResult struct {
	Token string
	User  domain.User
}

// Identity is what a successful Authorize attaches to the request.
type Identity struct {
	User  domain.User
	Token string
}

func (s *Service) WithAudit(fn func(ctx context.Context, action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

func (s *Service) WithLogger(lg zerolog.Logger) *Service {
	s.lg = lg.With().Str("component", "auth_service").Logger()
	return s
}

// storeErr keeps domain errors as they are and reports anything else
// coming out of the store as StoreUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.ErrStoreUnavailable(err)
}

// burnVerify runs one Verify against a throwaway hash so an unknown email
// costs the same as a wrong password.
func (s *Service) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		if h, err := s.hasher.Hash("unknown-account-placeholder"); err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

// goDispatcher is used when no pool is wired; every job gets its own goroutine.
type goDispatcher struct{}

func (goDispatcher) Submit(job func()) bool {
	go job()
	return true
}
