package services

import (
	"context"

	"staybook/internal/domain"
	applog "staybook/internal/log"
	"staybook/internal/repos"
)

type ContactService struct {
	Messages *repos.ContactRepo
}

func NewContactService(msgs *repos.ContactRepo) *ContactService {
	return &ContactService{Messages: msgs}
}

func (s *ContactService) Submit(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
	out, err := s.Messages.Create(ctx, m)
	if err != nil {
		return out, err
	}
	applog.Info(nil, "contact.received", map[string]any{"id": out.ID, "subject": out.Subject})
	return out, nil
}
