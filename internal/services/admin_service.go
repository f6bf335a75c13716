package services

import (
	"context"

	"staybook/internal/domain"
	"staybook/internal/repos"
)

type AdminService struct {
	Users    *repos.UserRepo
	Listings *repos.ListingRepo
	Bookings *repos.BookingRepo
	Contact  *repos.ContactRepo
}

func NewAdminService(users *repos.UserRepo, listings *repos.ListingRepo, bookings *repos.BookingRepo, contact *repos.ContactRepo) *AdminService {
	return &AdminService{Users: users, Listings: listings, Bookings: bookings, Contact: contact}
}

func (s *AdminService) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	var err error
	if st.UsersByRole, err = s.Users.CountByRole(ctx); err != nil {
		return st, err
	}
	if st.ListingsByStatus, err = s.Listings.CountByStatus(ctx); err != nil {
		return st, err
	}
	if st.Bookings, st.GrossBookingValue, err = s.Bookings.Totals(ctx); err != nil {
		return st, err
	}
	for _, n := range st.UsersByRole {
		st.Users += n
	}
	for _, n := range st.ListingsByStatus {
		st.Listings += n
	}
	return st, nil
}

func (s *AdminService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	return s.Users.ListWithCounts(ctx)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, actor *domain.User, id, role string) error {
	if !domain.ValidRole(role) {
		return ErrInvalidRole
	}
	if actor.ID == id && role != domain.RoleAdmin {
		return ErrForbidden
	}
	return s.Users.UpdateRole(ctx, id, role)
}

func (s *AdminService) Messages(ctx context.Context) ([]domain.ContactMessage, error) {
	return s.Contact.List(ctx)
}
