package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"TickerScope/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidState    = errors.New("invalid session state")
)

// Tab is the dashboard view a session is looking at.
type Tab string

const (
	TabOverview    Tab = "Overview"
	TabPriceChart  Tab = "Price Chart"
	TabNews        Tab = "News"
	TabForecasting Tab = "Forecasting"
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabOverview, TabPriceChart, TabNews, TabForecasting}

// ParseTab accepts the display name or a lowercase slug ("price-chart").
func ParseTab(s string) (Tab, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Tabs {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tab %q", ErrInvalidState, s)
}

// State is everything the dashboard remembers between requests of one user.
type State struct {
	ID        string              `json:"id"`
	Tab       Tab                 `json:"tab"`
	Ticker    string              `json:"ticker"`
	Horizon   int                 `json:"horizon"`
	Model     model.ForecastModel `json:"model"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// New returns a fresh state on the Overview tab for the first ticker.
func New(tickers []string) *State {
	now := time.Now().UTC()
	s := &State{
		ID:        uuid.NewString(),
		Tab:       TabOverview,
		Horizon:   model.DefaultHorizon,
		Model:     model.ModelARIMA,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(tickers) > 0 {
		s.Ticker = tickers[0]
	}
	return s
}

// Change is a partial update; nil fields are left alone.
type Change struct {
	Tab     *string `json:"tab,omitempty"`
	Ticker  *string `json:"ticker,omitempty"`
	Horizon *int    `json:"horizon,omitempty"`
	Model   *string `json:"model,omitempty"`
}

// Apply validates every field of c before touching s, so a rejected change
// leaves the state as it was.
func (s *State) Apply(c Change, tickers []string) error {
	next := *s

	if c.Tab != nil {
		tab, err := ParseTab(*c.Tab)
		if err != nil {
			return err
		}
		next.Tab = tab
	}
	if c.Ticker != nil {
		t := strings.ToUpper(strings.TrimSpace(*c.Ticker))
		if !slices.Contains(tickers, t) {
			return fmt.Errorf("%w: ticker %q is not offered", ErrInvalidState, *c.Ticker)
		}
		next.Ticker = t
	}
	if c.Horizon != nil {
		if *c.Horizon < model.MinHorizon || *c.Horizon > model.MaxHorizon {
			return fmt.Errorf("%w: horizon %d outside [%d, %d]",
				ErrInvalidState, *c.Horizon, model.MinHorizon, model.MaxHorizon)
		}
		next.Horizon = *c.Horizon
	}
	if c.Model != nil {
		m, err := model.ParseForecastModel(*c.Model)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
		next.Model = m
	}

	next.UpdatedAt = time.Now().UTC()
	*s = next
	return nil
}

// Store persists session state.
type Store interface {
	Create(ctx context.Context, s *State) error
	Get(ctx context.Context, id string) (*State, error)
	// Update loads the session, runs fn on it and saves the result unless fn fails.
	Update(ctx context.Context, id string, fn func(*State) error) (*State, error)
	Delete(ctx context.Context, id string) error
}
