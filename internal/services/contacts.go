package services

import (
	"context"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ContactService manages an owner's payees and payers.
type ContactService struct {
	repo *storage.Repository
}

func NewContactService(repo *storage.Repository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) Create(ctx context.Context, id auth.Identity, c core.Contact) (core.Contact, error) {
	if err := auth.Require(id); err != nil {
		return core.Contact{}, err
	}
	if err := c.Validate(); err != nil {
		return core.Contact{}, err
	}
	return s.repo.CreateContact(ctx, id.UID, c)
}

func (s *ContactService) Get(ctx context.Context, id auth.Identity, contactID string) (core.Contact, error) {
	if err := auth.Require(id); err != nil {
		return core.Contact{}, err
	}
	return s.repo.GetContact(ctx, id.UID, contactID)
}

func (s *ContactService) List(ctx context.Context, id auth.Identity) ([]core.Contact, error) {
	if err := auth.Require(id); err != nil {
		return nil, err
	}
	return s.repo.ListContacts(ctx, id.UID)
}

func (s *ContactService) Update(ctx context.Context, id auth.Identity, contactID string, u core.ContactUpdate) (core.Contact, error) {
	if err := auth.Require(id); err != nil {
		return core.Contact{}, err
	}
	return s.repo.UpdateContact(ctx, id.UID, contactID, u)
}

func (s *ContactService) Delete(ctx context.Context, id auth.Identity, contactID string) error {
	if err := auth.Require(id); err != nil {
		return err
	}
	return s.repo.DeleteContact(ctx, id.UID, contactID)
}
