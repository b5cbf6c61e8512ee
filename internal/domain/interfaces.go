package domain

import (
	"context"
	"io"

	"libris/internal/api"
	"libris/internal/models"
)

// Consumer-facing slices of the backend client, kept here so services and
// workers can be tested against doubles instead of a live *api.Client.

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResult, error)
	Refresh(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

type BookAPI interface {
	ListBooks(ctx context.Context, page int) (api.Page[models.Book], error)
	SearchBooks(ctx context.Context, page int, filter api.ListFilter) (api.Page[models.Book], error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, req api.CreateBookRequest, cover io.Reader, coverName string) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, patch map[string]any) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type BorrowAPI interface {
	ListBorrows(ctx context.Context, page int, filter api.ListFilter) (api.Page[models.Borrow], error)
	BorrowBook(ctx context.Context, bookID int64) (*models.Borrow, error)
	ReturnBorrow(ctx context.Context, borrowID int64) (*models.Borrow, error)
}

type ReservationAPI interface {
	ListReservations(ctx context.Context, page int, filter api.ListFilter) (api.Page[models.Reservation], error)
	CreateReservation(ctx context.Context, bookID int64) (*models.Reservation, error)
	SetReservationStatus(ctx context.Context, id int64, status string) (*models.Reservation, error)
	BookReservations(ctx context.Context, bookID int64, userID *int64) ([]models.Reservation, error)
	NextReservation(ctx context.Context, bookID int64) (*models.Reservation, error)
}

type ReviewAPI interface {
	BookReviews(ctx context.Context, bookID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, bookID int64, rating int, comment string) (*models.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

type UserAPI interface {
	ListUsers(ctx context.Context, page int, filter api.ListFilter) (api.Page[models.User], error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetProfile(ctx context.Context, id int64) (*api.Profile, error)
	UpdateUser(ctx context.Context, id int64, req api.UpdateUserRequest) (*models.User, error)
	SetBan(ctx context.Context, id int64, req api.BanRequest) (*models.User, error)
}

type PaymentAPI interface {
	CreatePayment(ctx context.Context, planID int64) (*models.Payment, error)
	GetSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	PaymentStatus(ctx context.Context, tranID string) (string, error)
}

type NotificationAPI interface {
	Notifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context) error
}

type ReportAPI interface {
	DownloadReport(ctx context.Context, kind string, w io.Writer) error
}
