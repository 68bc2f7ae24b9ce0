// Package domain defines the business logic for the GTM tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrValidation indicates user-correctable bad input.
	ErrValidation = errors.New("validation failed")
)

// DefaultListLimit applies when a caller does not request a page size.
const DefaultListLimit = 100

// ListFilter restricts and pages a listing. Text filters are case-insensitive
// substring matches, AND-combined when more than one is set.
type ListFilter struct {
	Hypothesis string
	Audience   string
	Channels   string
	Skip       int
	Limit      int
	// NewestFirst reverses the id ordering so the most recent activities
	// come back first.
	NewestFirst bool
}

// CreateInput captures the fields of a new activity.
type CreateInput struct {
	Hypothesis     string
	Audience       *string
	Channels       *string
	Description    *string
	ListSize       *int
	MeetingsBooked *int
	StartDate      *Date
	EndDate        *Date
	EstWeeklyHrs   *float64
}

// UpdateInput carries the fields of an update. With partial semantics only
// non-nil fields are applied; with full semantics every optional field is
// replaced and nil means NULL.
type UpdateInput struct {
	Hypothesis     *string
	Audience       *string
	Channels       *string
	Description    *string
	ListSize       *int
	MeetingsBooked *int
	StartDate      *Date
	EndDate        *Date
	EstWeeklyHrs   *float64
}

// ActivityRepository captures persistence operations. Get returns nil without
// error when the id is absent; Update and Delete report whether a row existed.
type ActivityRepository interface {
	List(ctx context.Context, filter ListFilter) ([]Activity, error)
	Get(ctx context.Context, id int64) (*Activity, error)
	Create(ctx context.Context, activity *Activity) error
	Update(ctx context.Context, activity *Activity) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Service orchestrates activity workflows.
type Service struct {
	repo     ActivityRepository
	maxLimit int
}

// NewService constructs a Service. maxLimit clamps list page sizes; values
// below one fall back to DefaultListLimit * 10.
func NewService(repo ActivityRepository, maxLimit int) *Service {
	if maxLimit < 1 {
		maxLimit = DefaultListLimit * 10
	}
	return &Service{repo: repo, maxLimit: maxLimit}
}

// List returns activities matching the filter, ordered by id.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Activity, error) {
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > s.maxLimit {
		filter.Limit = s.maxLimit
	}
	return s.repo.List(ctx, filter)
}

// Get fetches by id.
func (s *Service) Get(ctx context.Context, id int64) (*Activity, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// Create validates the input and persists a new activity.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Activity, error) {
	input.Hypothesis = strings.TrimSpace(input.Hypothesis)
	if input.Hypothesis == "" {
		return nil, fmt.Errorf("%w: hypothesis is required", ErrValidation)
	}
	if err := validateNumbers(input.ListSize, input.MeetingsBooked, input.EstWeeklyHrs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	activity := Activity{
		Hypothesis:     input.Hypothesis,
		Audience:       input.Audience,
		Channels:       input.Channels,
		Description:    input.Description,
		ListSize:       input.ListSize,
		MeetingsBooked: input.MeetingsBooked,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		EstWeeklyHrs:   input.EstWeeklyHrs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Update applies input to an existing activity. With partial=true only fields
// present in the input change; otherwise every optional field is replaced.
// updated_at is refreshed either way, so a partial update with an empty input
// is a timestamp-only touch.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, partial bool) (*Activity, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	if partial {
		applyPresent(activity, input)
	} else {
		replaceAll(activity, input)
	}

	activity.Hypothesis = strings.TrimSpace(activity.Hypothesis)
	if activity.Hypothesis == "" {
		return nil, fmt.Errorf("%w: hypothesis is required", ErrValidation)
	}
	if err := validateNumbers(activity.ListSize, activity.MeetingsBooked, activity.EstWeeklyHrs); err != nil {
		return nil, err
	}

	activity.UpdatedAt = time.Now().UTC()
	found, err := s.repo.Update(ctx, activity)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// Delete removes an activity. Hard delete; the id is never reassigned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrActivityNotFound
	}
	return nil
}

func applyPresent(activity *Activity, input UpdateInput) {
	if input.Hypothesis != nil {
		activity.Hypothesis = *input.Hypothesis
	}
	if input.Audience != nil {
		activity.Audience = input.Audience
	}
	if input.Channels != nil {
		activity.Channels = input.Channels
	}
	if input.Description != nil {
		activity.Description = input.Description
	}
	if input.ListSize != nil {
		activity.ListSize = input.ListSize
	}
	if input.MeetingsBooked != nil {
		activity.MeetingsBooked = input.MeetingsBooked
	}
	if input.StartDate != nil {
		activity.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		activity.EndDate = input.EndDate
	}
	if input.EstWeeklyHrs != nil {
		activity.EstWeeklyHrs = input.EstWeeklyHrs
	}
}

func replaceAll(activity *Activity, input UpdateInput) {
	if input.Hypothesis != nil {
		activity.Hypothesis = *input.Hypothesis
	} else {
		activity.Hypothesis = ""
	}
	activity.Audience = input.Audience
	activity.Channels = input.Channels
	activity.Description = input.Description
	activity.ListSize = input.ListSize
	activity.MeetingsBooked = input.MeetingsBooked
	activity.StartDate = input.StartDate
	activity.EndDate = input.EndDate
	activity.EstWeeklyHrs = input.EstWeeklyHrs
}

func validateNumbers(listSize, meetingsBooked *int, estWeeklyHrs *float64) error {
	if listSize != nil && *listSize < 0 {
		return fmt.Errorf("%w: list_size must be >= 0", ErrValidation)
	}
	if meetingsBooked != nil && *meetingsBooked < 0 {
		return fmt.Errorf("%w: meetings_booked must be >= 0", ErrValidation)
	}
	if estWeeklyHrs != nil && *estWeeklyHrs < 0 {
		return fmt.Errorf("%w: est_weekly_hrs must be >= 0", ErrValidation)
	}
	return nil
}
