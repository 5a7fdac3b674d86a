package service

import (
	"context"
	"fmt"

	"calendar-service/api"
	"calendar-service/internal/models"
)

func (s *Service) CreateSchedule(ctx context.Context, req *api.ScheduleRequest) (*api.ScheduleResponse, error) {
	const op = "service.CreateSchedule"

	schedule, err := models.NewSchedule(req.UserID, req.AccountID, req.Timezone)
	if err != nil {
		return nil, badRequest(op, err)
	}
	if req.Rules != nil {
		if err := schedule.SetRules(req.Rules); err != nil {
			return nil, badRequest(op, err)
		}
	}

	if err := s.store.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ScheduleResponse{Schedule: *schedule}, nil
}

func (s *Service) GetSchedule(ctx context.Context, id, accountID string) (*api.ScheduleResponse, error) {
	const op = "service.GetSchedule"

	schedule, err := s.store.GetSchedule(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ScheduleResponse{Schedule: *schedule}, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, id string, req *api.ScheduleUpdateRequest) (*api.ScheduleResponse, error) {
	const op = "service.UpdateSchedule"

	schedule, err := s.store.GetSchedule(ctx, id, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Timezone != nil {
		if err := schedule.SetTimezone(*req.Timezone); err != nil {
			return nil, badRequest(op, err)
		}
	}
	if req.Rules != nil {
		if err := schedule.SetRules(req.Rules); err != nil {
			return nil, badRequest(op, err)
		}
	}

	if err := s.store.UpdateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ScheduleResponse{Schedule: *schedule}, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id, accountID string) error {
	const op = "service.DeleteSchedule"

	if err := s.store.DeleteSchedule(ctx, id, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
