package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"libris/internal/api"
	"libris/internal/cache"
	"libris/internal/config"
	"libris/internal/events"
	"libris/internal/export"
	"libris/internal/logging"
	"libris/internal/metrics"
	"libris/internal/models"
	"libris/internal/service"
	"libris/internal/session"
	"libris/internal/state"
	"libris/internal/worker"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

type app struct {
	cfg          *config.Config
	logger       zerolog.Logger
	client       *api.Client
	session      *session.Manager
	bus          *events.EventBus
	notifier     state.Notifier
	borrows      *service.BorrowService
	reservations *service.ReservationService
	users        *service.UserService
	poller       *worker.PaymentPoller
	exporter     *export.Writer
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := buildApp(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer cleanup()

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return nil
	}

	return a.dispatch(ctx, args[0], args[1:])
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "cli")

	return cfg, logger, closer, nil
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*app, func(), error) {
	cleanup := func() {}

	client, err := api.New(cfg.Backend, cfg.Pagination, logger)
	if err != nil {
		return nil, cleanup, err
	}

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		redisClient := cache.NewRedisClient(cfg.Cache.Redis)
		cleanup = func() { _ = cache.Close(redisClient) }

		memory := cache.NewMemory(ttl)
		if err := cache.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, caching in memory only")
			client.UseCache(memory)
		} else {
			client.UseCache(cache.NewFailover(cache.NewRedis(redisClient, ttl), memory, logger))
		}
	}

	sess := session.NewManager(client, cfg.Auth, logger)
	client.UseTokenSource(sess)
	sess.Bootstrap(ctx)

	bus := events.NewEventBus()
	subscribeToasts(bus, logger)
	notifier := events.NewToastNotifier(bus)

	a := &app{
		cfg:          cfg,
		logger:       *logger,
		client:       client,
		session:      sess,
		bus:          bus,
		notifier:     notifier,
		borrows:      service.NewBorrowService(client, bus, sess, notifier, logger),
		reservations: service.NewReservationService(client, bus, sess, notifier, logger),
		users:        service.NewUserService(client, bus, sess, notifier, logger),
		poller:       worker.NewPaymentPoller(client, bus, cfg.Polling, logger),
		exporter:     export.NewWriter(cfg.Exports.Path, logger),
	}
	return a, cleanup, nil
}

// subscribeToasts renders toast events; in a richer frontend this is where
// the notification widget would hook in.
func subscribeToasts(bus *events.EventBus, logger *zerolog.Logger) {
	toastLogger := logging.Component(logger, "toast")
	bus.Subscribe(events.EventToastSuccess, func(e *events.Event) error {
		fmt.Printf("✔ %s\n", toastMessage(e))
		return nil
	})
	bus.Subscribe(events.EventToastError, func(e *events.Event) error {
		fmt.Printf("✘ %s\n", toastMessage(e))
		toastLogger.Warn().RawJSON("payload", e.Payload).Msg("error toast")
		return nil
	})
}

func toastMessage(e *events.Event) string {
	var p events.ToastPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return string(e.Payload)
	}
	return p.Message
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "register":
		return a.cmdRegister(ctx, args)
	case "logout":
		return a.session.Logout(ctx)
	case "whoami":
		return a.cmdWhoami()
	case "books":
		return a.cmdBooks(ctx, args)
	case "search":
		return a.cmdSearch(ctx, args)
	case "book":
		return a.cmdBook(ctx, args)
	case "borrows":
		return a.cmdBorrows(ctx)
	case "borrow":
		return a.cmdBorrow(ctx, args)
	case "return":
		return a.cmdReturn(ctx, args)
	case "reservations":
		return a.cmdReservations(ctx)
	case "reserve":
		return a.cmdReserve(ctx, args)
	case "cancel":
		return a.cmdCancel(ctx, args)
	case "reviews":
		return a.cmdReviews(ctx, args)
	case "review":
		return a.cmdReview(ctx, args)
	case "notifications":
		return a.cmdNotifications(ctx)
	case "mark-read":
		return a.client.MarkNotificationsRead(ctx)
	case "plans":
		return a.cmdPlans(ctx)
	case "subscribe":
		return a.cmdSubscribe(ctx, args)
	case "ban":
		return a.cmdBan(ctx, args)
	case "unban":
		return a.cmdUnban(ctx, args)
	case "ban-status":
		return a.cmdBanStatus(ctx, args)
	case "export":
		return a.cmdExport(ctx, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: librisctl login <email> <password>")
	}
	user, err := a.session.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if user != nil {
		fmt.Printf("signed in as %s (%s)\n", user.Name, user.Role)
	}
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return errors.New("usage: librisctl register <name> <email> <phone> <password>")
	}
	user, err := a.session.Register(ctx, args[0], args[1], args[2], args[3])
	if err != nil {
		return err
	}
	if user != nil {
		fmt.Printf("welcome, %s\n", user.Name)
	}
	return nil
}

func (a *app) cmdWhoami() error {
	if !a.session.Authenticated() {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("user %d, role %s\n", a.session.UserID(), a.session.Role())
	return nil
}

func (a *app) cmdBooks(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		page = atoiOr(args[0], 1)
	}
	result, err := a.client.ListBooks(ctx, page)
	if err != nil {
		return err
	}
	printBooks(result)
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: librisctl search <query> [page]")
	}
	page := 1
	if len(args) > 1 {
		page = atoiOr(args[1], 1)
	}
	result, err := a.client.SearchBooks(ctx, page, api.ListFilter{Query: args[0]})
	if err != nil {
		return err
	}
	printBooks(result)
	return nil
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl book <id>")
	if err != nil {
		return err
	}
	book, err := a.client.GetBook(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s — %s (%d), %d/%d copies available\n",
		book.Title, book.Author, book.Year, book.AvailableCopies, book.TotalCopies)
	if book.Description != "" {
		fmt.Println(book.Description)
	}
	return nil
}

func (a *app) cmdBorrows(ctx context.Context) error {
	if err := a.borrows.Load(ctx); err != nil {
		return err
	}
	now := time.Now()
	for _, b := range a.borrows.Borrows() {
		status := "returned"
		if b.Active() {
			status = "due " + b.DueDate.Format("2006-01-02")
			if b.Overdue(now) {
				status = "OVERDUE since " + b.DueDate.Format("2006-01-02")
			}
		}
		fmt.Printf("#%d book %d — %s\n", b.ID, b.BookID, status)
	}
	return nil
}

func (a *app) cmdBorrow(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl borrow <bookID>")
	if err != nil {
		return err
	}
	if err := a.borrows.Load(ctx); err != nil {
		return err
	}
	return a.borrows.Borrow(ctx, id).Err
}

func (a *app) cmdReturn(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl return <borrowID>")
	if err != nil {
		return err
	}
	if err := a.borrows.Load(ctx); err != nil {
		return err
	}
	return a.borrows.Return(ctx, id).Err
}

func (a *app) cmdReservations(ctx context.Context) error {
	if err := a.reservations.Load(ctx); err != nil {
		return err
	}
	for _, r := range a.reservations.Reservations() {
		fmt.Printf("#%d book %d — %s\n", r.ID, r.BookID, r.Status)
	}
	return nil
}

func (a *app) cmdReserve(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl reserve <bookID>")
	if err != nil {
		return err
	}
	if err := a.reservations.Load(ctx); err != nil {
		return err
	}
	return a.reservations.Reserve(ctx, id).Err
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl cancel <reservationID>")
	if err != nil {
		return err
	}
	if err := a.reservations.Load(ctx); err != nil {
		return err
	}
	return a.reservations.Cancel(ctx, id).Err
}

func (a *app) cmdReviews(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl reviews <bookID>")
	if err != nil {
		return err
	}
	reviews, err := a.client.BookReviews(ctx, id)
	if err != nil {
		return err
	}
	for _, r := range reviews {
		fmt.Printf("%s %s — %s\n", strings.Repeat("★", r.Rating), r.UserName, r.Comment)
	}
	return nil
}

func (a *app) cmdReview(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: librisctl review <bookID> <rating 1-5> <comment...>")
	}
	bookID := atoiOr(args[0], 0)
	rating := atoiOr(args[1], 0)
	comment := strings.Join(args[2:], " ")

	review, err := a.client.CreateReview(ctx, int64(bookID), rating, comment)
	if err != nil {
		a.notifier.Error(api.UserMessage(err))
		return err
	}
	a.notifier.Success(fmt.Sprintf("review #%d posted", review.ID))
	return nil
}

func (a *app) cmdNotifications(ctx context.Context) error {
	notifications, err := a.client.Notifications(ctx)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %s (%s)\n", marker, n.Message, n.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) cmdPlans(ctx context.Context) error {
	plans, err := a.client.ListPlans(ctx)
	if err != nil {
		return err
	}
	for _, p := range plans {
		fmt.Printf("#%d %s — %.2f / %d days\n", p.ID, p.Name, p.Price, p.DurationDays)
	}
	return nil
}

// cmdSubscribe starts a payment and polls the gateway until it settles or
// the attempt budget runs out.
func (a *app) cmdSubscribe(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl subscribe <planID>")
	if err != nil {
		return err
	}
	payment, err := a.client.CreatePayment(ctx, id)
	if err != nil {
		return err
	}
	if payment.GatewayURL != "" {
		fmt.Printf("complete checkout at: %s\n", payment.GatewayURL)
	}

	outcome, err := a.poller.Wait(ctx, payment.TransactionID)
	if err != nil {
		return err
	}
	switch outcome {
	case worker.OutcomeConfirmed:
		a.notifier.Success("subscription active")
	case worker.OutcomeFailed:
		a.notifier.Error("payment failed")
	default:
		fmt.Println("payment still pending — check back later")
	}
	return nil
}

func (a *app) cmdBan(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: librisctl ban <userID> [days|permanent] <reason...>")
	}
	userID := int64(atoiOr(args[0], 0))

	permanent := false
	var until *time.Time
	reasonArgs := args[1:]
	if args[1] == "permanent" {
		permanent = true
		reasonArgs = args[2:]
	} else if days, err := strconv.Atoi(args[1]); err == nil {
		t := time.Now().AddDate(0, 0, days)
		until = &t
		reasonArgs = args[2:]
	}

	if _, err := a.users.LoadUsers(ctx, 1, api.ListFilter{}); err != nil {
		return err
	}
	return a.users.Ban(ctx, userID, strings.Join(reasonArgs, " "), until, permanent).Err
}

func (a *app) cmdUnban(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl unban <userID>")
	if err != nil {
		return err
	}
	if _, err := a.users.LoadUsers(ctx, 1, api.ListFilter{}); err != nil {
		return err
	}
	return a.users.Unban(ctx, id).Err
}

// cmdBanStatus shows the ban countdown the way the profile page would,
// ticking once a second until expiry.
func (a *app) cmdBanStatus(ctx context.Context, args []string) error {
	id, err := argID(args, "usage: librisctl ban-status <userID>")
	if err != nil {
		return err
	}
	user, err := a.client.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if !user.BanActive(time.Now()) {
		fmt.Println("no active ban")
		return nil
	}
	if user.IsPermanentBan {
		fmt.Printf("permanently banned: %s\n", user.BanReason)
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		remaining := user.BanRemaining(time.Now())
		if remaining <= 0 {
			fmt.Println("ban expired — sign in again")
			return nil
		}
		fmt.Printf("\rbanned for another %s (%s)", remaining.Round(time.Second), user.BanReason)
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: librisctl export <books|users|reservations>")
	}
	kind := args[0]

	tmp, err := os.CreateTemp("", "libris-report-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := a.client.DownloadReport(ctx, kind, tmp); err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	path, err := a.exporter.WriteXLSX(kind, tmp)
	if err != nil {
		return err
	}
	fmt.Printf("exported %s\n", path)
	return nil
}

func printBooks(page api.Page[models.Book]) {
	for _, b := range page.Items {
		availability := "available"
		if !b.Available() {
			availability = "all copies out"
		}
		fmt.Printf("#%d %s — %s (%s)\n", b.ID, b.Title, b.Author, availability)
	}
	if page.TotalPages() > 1 {
		fmt.Printf("page %d of %d\n", page.Page, page.TotalPages())
	}
}

func argID(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, errors.New(usage)
	}
	return id, nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func printUsage() {
	fmt.Println(`usage: librisctl <command> [args]

  login <email> <password>      sign in
  register <name> <email> <phone> <password>
  logout                        sign out
  whoami                        show session
  books [page]                  browse the catalog
  search <query> [page]         search the catalog
  book <id>                     book details
  borrows / borrow / return     loans
  reservations / reserve / cancel
  reviews <bookID>              read reviews
  review <bookID> <rating> <comment...>
  notifications / mark-read
  plans / subscribe <planID>
  ban <userID> [days|permanent] <reason...>
  unban <userID> / ban-status <userID>
  export <books|users|reservations>`)
}
