// Command storefront drives the Grocify storefront core from the
// terminal: browse the catalog, manage the cart, check out and pay.
// Session state lives under STATE_DIR so it survives between runs, the
// same way the web client kept it in browser storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/grocify/storefront/internal/backend"
	cartapp "github.com/grocify/storefront/internal/cart/application"
	cartdomain "github.com/grocify/storefront/internal/cart/domain"
	catalogapp "github.com/grocify/storefront/internal/catalog/application"
	catalogdomain "github.com/grocify/storefront/internal/catalog/domain"
	checkoutapp "github.com/grocify/storefront/internal/checkout/application"
	checkoutdomain "github.com/grocify/storefront/internal/checkout/domain"
	feedbackapp "github.com/grocify/storefront/internal/feedback/application"
	feedbackdomain "github.com/grocify/storefront/internal/feedback/domain"
	ordersapp "github.com/grocify/storefront/internal/orders/application"
	paymentapp "github.com/grocify/storefront/internal/payment/application"
	paymentdomain "github.com/grocify/storefront/internal/payment/domain"
	"github.com/grocify/storefront/internal/session"
	"github.com/grocify/storefront/internal/storage"
	filestore "github.com/grocify/storefront/internal/storage/file"
	redisstore "github.com/grocify/storefront/internal/storage/redis"
	"github.com/grocify/storefront/pkg/logging"
	"github.com/grocify/storefront/pkg/pubsub"
	"github.com/grocify/storefront/pkg/shutdown"
)

const usage = `usage: storefront <command> [flags]

commands:
  products   [-q query] [-c category]   browse the catalog
  categories                            list catalog categories
  signup     <username> <password>      create an account and sign in
  login      <username> <password>      sign in
  logout                                sign out
  whoami                                show the cached identity
  cart                                  show the cart
  cart-add   <productID> [qty]          add a product
  cart-set   <productID> <qty>          set a line quantity (0 removes)
  cart-remove <productID>               remove a line
  checkout   -address A [-method M] [-notes N]
                                        place the order
  pay        [-method card|upi] [card/upi flags]
                                        pay the pending order
  orders                                order history
  review     -product P -rating R -comment C
                                        submit product feedback
  reviews    <productID>                list product feedback
`

type app struct {
	log      *slog.Logger
	store    storage.Store
	bus      *pubsub.Bus
	client   *backend.Client
	session  *session.Manager
	cart     *cartapp.Service
	catalog  *catalogapp.Service
	orders   *ordersapp.Service
	feedback *feedbackapp.Service
	checkout *checkoutapp.Orchestrator
	payDelay time.Duration
}

func main() {
	_ = godotenv.Load()
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a, err := newApp(ctx, log)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, checkoutapp.ErrNotAuthenticated) || errors.Is(err, backend.ErrNoCredential) {
			fmt.Fprintln(os.Stderr, "please sign in first: storefront login <username> <password>")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, log *slog.Logger) (*app, error) {
	backendURL := env("BACKEND_URL", "http://localhost:8081")
	stateDir := env("STATE_DIR", ".grocify")
	redisAddr := env("REDIS_ADDR", "")

	var store storage.Store
	bus := pubsub.NewBus()
	var pub cartapp.Publisher = bus

	if redisAddr != "" {
		// Shared-session mode: the store and the change signal both ride
		// redis so concurrent storefront processes stay in sync.
		rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		store = redisstore.New(rdb, env("REDIS_PREFIX", "grocify"))
		bridge := pubsub.NewBridge(log, rdb, bus, "grocify.cart")
		go func() { _ = bridge.Run(ctx) }()
		pub = bridge
	} else {
		fs, err := filestore.New(stateDir)
		if err != nil {
			return nil, err
		}
		store = fs
	}

	a := &app{log: log, store: store, bus: bus, payDelay: 2 * time.Second}
	a.cart = cartapp.NewService(log, store, pub)

	// The client needs the token source and the session needs the client;
	// wire the manager first against a late-bound auth port.
	a.session = session.NewManager(log, store, authAPI{a})
	a.client = backend.New(log, backendURL, a.session)

	a.catalog = catalogapp.NewService(log, a.client)
	a.orders = ordersapp.NewService(log, a.client)
	a.feedback = feedbackapp.NewService(log, a.client)
	a.checkout = checkoutapp.NewOrchestrator(log, guard{a.session}, a.cart, a.client, store)
	return a, nil
}

// authAPI defers to the backend client, breaking the construction cycle
// between the session manager and the client.
type authAPI struct{ a *app }

func (p authAPI) Login(ctx context.Context, username, password string) (session.AuthResult, error) {
	return p.a.client.Login(ctx, username, password)
}

func (p authAPI) Signup(ctx context.Context, username, password, role string) (session.AuthResult, error) {
	return p.a.client.Signup(ctx, username, password, role)
}

type guard struct{ m *session.Manager }

func (g guard) IsAuthenticated(ctx context.Context) bool { return g.m.IsAuthenticated(ctx) }

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return a.cmdProducts(ctx, args)
	case "categories":
		return a.cmdCategories(ctx)
	case "signup":
		return a.cmdSignup(ctx, args)
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.session.Logout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "cart":
		return a.cmdCart(ctx)
	case "cart-add":
		return a.cmdCartAdd(ctx, args)
	case "cart-set":
		return a.cmdCartSet(ctx, args)
	case "cart-remove":
		return a.cmdCartRemove(ctx, args)
	case "checkout":
		return a.cmdCheckout(ctx, args)
	case "pay":
		return a.cmdPay(ctx, args)
	case "orders":
		return a.cmdOrders(ctx)
	case "review":
		return a.cmdReview(ctx, args)
	case "reviews":
		return a.cmdReviews(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	query := fs.String("q", "", "search in name and description")
	category := fs.String("c", "", "filter by category")
	_ = fs.Parse(args)

	products, err := a.catalog.Browse(ctx, *query, *category)
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Printf("%4d  %-24s %-12s ₹%8.2f  stock %d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
	return nil
}

func (a *app) cmdCategories(ctx context.Context) error {
	cats, err := a.catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		fmt.Println(c)
	}
	return nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: storefront signup <username> <password>")
	}
	u, err := a.session.Signup(ctx, args[0], args[1], "USER")
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", u.Username)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: storefront login <username> <password>")
	}
	u, err := a.session.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", u.Username, u.Role)
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	u, ok := a.session.Current(ctx)
	if !ok {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", u.Username, u.Role)
	return nil
}

func (a *app) cmdCart(ctx context.Context) error {
	c := a.cart.Items(ctx)
	if len(c) == 0 {
		fmt.Println("your cart is empty")
		return nil
	}
	for _, l := range c {
		fmt.Printf("%4d  %-24s %2d x ₹%7.2f = ₹%8.2f\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.Total())
	}
	fmt.Printf("      %d items, subtotal ₹%.2f\n", c.ItemCount(), c.Subtotal())
	return nil
}

func (a *app) cmdCartAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront cart-add <productID> [qty]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	qty := 1
	if len(args) > 1 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
	}

	p, err := a.catalog.Get(ctx, id)
	if err != nil {
		return err
	}
	c, err := a.cart.Add(ctx, cartLine(p), qty)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%dx) added to cart, %d items total\n", p.Name, qty, c.ItemCount())
	return nil
}

func (a *app) cmdCartSet(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: storefront cart-set <productID> <qty>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	_, err = a.cart.SetQuantity(ctx, id, qty)
	return err
}

func (a *app) cmdCartRemove(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront cart-remove <productID>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	_, err = a.cart.Remove(ctx, id)
	return err
}

func (a *app) cmdCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	address := fs.String("address", "", "shipping address (required)")
	method := fs.String("method", checkoutdomain.MethodCashOnDelivery, "CASH_ON_DELIVERY or ONLINE_PAYMENT")
	notes := fs.String("notes", "", "delivery notes")
	_ = fs.Parse(args)

	if err := a.checkout.OpenForm(ctx); err != nil {
		return err
	}
	summary, err := a.checkout.Submit(ctx, checkoutdomain.Form{
		ShippingAddress: *address,
		PaymentMethod:   *method,
		Notes:           *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("order #%d placed: %d items, ₹%.2f\n", summary.OrderID, summary.ItemCount, summary.TotalAmount)
	if summary.PaymentMethod == checkoutdomain.MethodOnlinePayment {
		fmt.Println("complete payment with: storefront pay")
	}
	return nil
}

func (a *app) cmdPay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pay", flag.ExitOnError)
	method := fs.String("method", "card", "card or upi")
	number := fs.String("number", "", "card number")
	holder := fs.String("holder", "", "card holder name")
	month := fs.String("month", "", "expiry month")
	year := fs.String("year", "", "expiry year")
	cvv := fs.String("cvv", "", "card cvv")
	upi := fs.String("upi", "", "upi id")
	_ = fs.Parse(args)

	stage, err := paymentapp.Resume(ctx, a.log, a.client, a.store, a.payDelay)
	if err != nil {
		return err
	}
	if err := stage.SelectMethod(paymentdomain.Method(*method)); err != nil {
		return err
	}
	if err := stage.SetCard(paymentdomain.CardDetails{
		Number: *number, Holder: *holder, ExpiryMonth: *month, ExpiryYear: *year, CVV: *cvv,
	}); err != nil {
		return err
	}
	if err := stage.SetUPI(paymentdomain.UPIDetails{ID: *upi}); err != nil {
		return err
	}

	fmt.Println("processing payment...")
	if err := stage.Pay(ctx); err != nil {
		return err
	}
	fmt.Printf("payment successful, order #%d confirmed\n", stage.Summary().OrderID)
	return nil
}

func (a *app) cmdOrders(ctx context.Context) error {
	orders, err := a.orders.History(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders yet")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("#%d  %-10s ₹%9.2f  %s\n", o.ID, o.Status, o.TotalAmount, o.OrderDate.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (a *app) cmdReview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	product := fs.Int64("product", 0, "product id")
	rating := fs.Int("rating", 0, "1 to 5")
	comment := fs.String("comment", "", "review text")
	_ = fs.Parse(args)

	return a.feedback.Submit(ctx, feedbackdomain.Submission{
		ProductID: *product,
		Rating:    *rating,
		Comment:   *comment,
		Public:    true,
	})
}

func (a *app) cmdReviews(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: storefront reviews <productID>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid product id %q", args[0])
	}
	reviews, err := a.feedback.ForProduct(ctx, id)
	if err != nil {
		return err
	}
	for _, fb := range reviews {
		fmt.Printf("%-12s %d/5  %s\n", fb.Username, fb.Rating, fb.Comment)
	}
	return nil
}

func cartLine(p catalogdomain.Product) cartdomain.Line {
	return cartdomain.Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
