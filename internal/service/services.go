package service

import (
	"context"
	"errors"
	"fmt"

	"calendar-service/api"
	"calendar-service/internal/models"
	"calendar-service/pkg/response"
)

func (s *Service) CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error) {
	const op = "service.CreateService"

	mp := req.MultiPerson
	switch mp.Variant {
	case "", models.MultiPersonSingle:
	case models.MultiPersonGroup:
		if mp.MaxCount < 1 {
			return nil, badRequest(op, fmt.Errorf("group max_count must be >= 1, got %d", mp.MaxCount))
		}
	case models.MultiPersonRoundRobin:
		switch mp.Algorithm {
		case "", models.RoundRobinAvailability, models.RoundRobinEqualDistribution:
		default:
			return nil, badRequest(op, fmt.Errorf("unknown round robin algorithm %q", mp.Algorithm))
		}
	default:
		return nil, badRequest(op, fmt.Errorf("unknown multi person variant %q", mp.Variant))
	}

	svc := models.NewService(req.AccountID, mp)
	svc.Metadata = req.Metadata

	if err := s.store.CreateService(ctx, &svc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ServiceResponse{Service: svc}, nil
}

func (s *Service) GetService(ctx context.Context, id, accountID string) (*api.ServiceResponse, error) {
	const op = "service.GetService"

	svc, err := s.store.GetService(ctx, id, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.ServiceResponse{Service: *svc}, nil
}

func (s *Service) DeleteService(ctx context.Context, id, accountID string) error {
	const op = "service.DeleteService"

	if err := s.store.DeleteService(ctx, id, accountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AddServiceUser registers (or replaces) a user's membership in a service
// along with their booking policy.
func (s *Service) AddServiceUser(ctx context.Context, serviceID string, req *api.ServiceResourceRequest) (*api.ServiceResponse, error) {
	const op = "service.AddServiceUser"

	if _, err := s.store.GetService(ctx, serviceID, req.AccountID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resource := models.NewServiceResource(req.UserID, serviceID, req.Availability, req.Busy)
	if err := s.applyResourcePolicy(ctx, &resource, req); err != nil {
		return nil, err
	}

	if err := s.store.UpsertServiceResource(ctx, &resource); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetService(ctx, serviceID, req.AccountID)
}

func (s *Service) RemoveServiceUser(ctx context.Context, serviceID, userID, accountID string) (*api.ServiceResponse, error) {
	const op = "service.RemoveServiceUser"

	svc, err := s.store.GetService(ctx, serviceID, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := svc.Resource(userID); !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	if err := s.store.RemoveServiceResource(ctx, serviceID, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetService(ctx, serviceID, accountID)
}

// applyResourcePolicy validates and copies the request's booking policy onto
// the resource, checking that the availability plan points at something the
// user actually owns.
func (s *Service) applyResourcePolicy(ctx context.Context, resource *models.ServiceResource, req *api.ServiceResourceRequest) error {
	const op = "service.applyResourcePolicy"

	switch req.Availability.Variant {
	case models.TimePlanEmpty, "":
		resource.Availability.Variant = models.TimePlanEmpty
	case models.TimePlanCalendar:
		cal, err := s.store.GetCalendar(ctx, req.Availability.ID, req.AccountID)
		if err != nil {
			if errors.Is(err, response.ErrNotFound) {
				return badRequest(op, fmt.Errorf("availability calendar %q not found", req.Availability.ID))
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if cal.UserID != req.UserID {
			return badRequest(op, fmt.Errorf("availability calendar %q does not belong to user %q", req.Availability.ID, req.UserID))
		}
	case models.TimePlanSchedule:
		schedule, err := s.store.GetSchedule(ctx, req.Availability.ID, req.AccountID)
		if err != nil {
			if errors.Is(err, response.ErrNotFound) {
				return badRequest(op, fmt.Errorf("availability schedule %q not found", req.Availability.ID))
			}
			return fmt.Errorf("%s: %w", op, err)
		}
		if schedule.UserID != req.UserID {
			return badRequest(op, fmt.Errorf("availability schedule %q does not belong to user %q", req.Availability.ID, req.UserID))
		}
	default:
		return badRequest(op, fmt.Errorf("unknown availability variant %q", req.Availability.Variant))
	}

	if req.BufferBefore != nil {
		if err := resource.SetBufferBefore(*req.BufferBefore); err != nil {
			return badRequest(op, err)
		}
	}
	if req.BufferAfter != nil {
		if err := resource.SetBufferAfter(*req.BufferAfter); err != nil {
			return badRequest(op, err)
		}
	}
	if req.ClosestBookingTime != nil {
		if *req.ClosestBookingTime < 0 {
			return badRequest(op, fmt.Errorf("closest_booking_time must be >= 0, got %d", *req.ClosestBookingTime))
		}
		resource.ClosestBookingTime = *req.ClosestBookingTime
	}
	if req.FurthestBookingTime != nil {
		if *req.FurthestBookingTime <= 0 {
			return badRequest(op, fmt.Errorf("furthest_booking_time must be > 0, got %d", *req.FurthestBookingTime))
		}
		resource.FurthestBookingTime = req.FurthestBookingTime
	}

	return nil
}
