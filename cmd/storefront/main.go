package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-client/internal/address"
	"github.com/angelmondragon/storefront-client/internal/auth"
	"github.com/angelmondragon/storefront-client/internal/cart"
	"github.com/angelmondragon/storefront-client/internal/checkout"
	"github.com/angelmondragon/storefront-client/internal/orders"
	"github.com/angelmondragon/storefront-client/internal/products"
	"github.com/angelmondragon/storefront-client/internal/promotions"
	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/metrics"
	"github.com/angelmondragon/storefront-client/pkg/storefront"
)

const usage = `usage: storefront <command> [args]

  login <username> <password>     sign in and store the session
  logout                          clear the stored session
  whoami                          show the signed-in user
  signup <username> <password>    create a dev buyer user
  products [id]                   browse the catalog
  cart show                       print the cart
  cart add <product> <qty>        add a product
  cart set <product> <qty>        pin a product quantity (0 removes)
  cart rm <product>               remove a product
  promo apply <code>              apply a discount code
  promo rm <code>                 remove a discount code
  promo list                      list applied codes
  address list|add|rm             manage saved addresses
  checkout -ship <id> [-bill <id>|-same]
                                  submit the active order
  orders [id]                     order history / detail
`

type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	store     session.Store
	client    *storefront.Client
	auth      *auth.Service
	resolver  *orders.Service
	cart      *cart.Service
	promos    *promotions.Service
	addresses *address.Service
	checkout  *checkout.Service
	products  *products.Service
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := openStore(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to open session store", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing session store", err)
		}
	}()

	m := metrics.NewStorefrontMetrics(nil)
	if cfg.Metrics.Addr != "" {
		registry := prometheus.NewRegistry()
		m = metrics.NewStorefrontMetrics(registry)
		go serveMetrics(cfg.Metrics.Addr, registry, logg)
	}

	application, err := wire(cfg, logg, store, m)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := application.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, pkgerrors.UserMessage(err, "something went wrong, try again"))
		if cfg.App.IsDev() {
			for _, entry := range pkgerrors.Dump(err).Chain {
				fmt.Fprintln(os.Stderr, "  "+entry)
			}
		}
		logg.Error(ctx, "command failed", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (session.Store, error) {
	switch cfg.Session.Driver {
	case "redis":
		return session.NewRedisStore(ctx, cfg.Redis, logg)
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return session.NewSQLiteStore(ctx, cfg.Session, logg)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logg.Error(context.Background(), "metrics listener stopped", err)
	}
}

func wire(cfg *config.Config, logg *logger.Logger, store session.Store, m *metrics.StorefrontMetrics) (*app, error) {
	client, err := storefront.NewClient(cfg.API, store, logg, m)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		API:    client,
		Store:  store,
		Logger: logg,
		SignupClient: func(token string) auth.SignupAPI {
			return client.WithBearer(token)
		},
	})
	if err != nil {
		return nil, err
	}

	resolver, err := orders.NewService(client, store, logg)
	if err != nil {
		return nil, err
	}

	projection := cart.NewProjection()
	cartService, err := cart.NewService(client, resolver, store, projection, logg)
	if err != nil {
		return nil, err
	}

	promoService, err := promotions.NewService(client, resolver, logg)
	if err != nil {
		return nil, err
	}

	addressService, err := address.NewService(client, logg)
	if err != nil {
		return nil, err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		API:        client,
		Resolver:   resolver,
		Store:      store,
		Projection: projection,
		Logger:     logg,
		Metrics:    m,
	})
	if err != nil {
		return nil, err
	}

	productService, err := products.NewService(client, authService, func(token string) products.API {
		return client.WithBearer(token)
	}, logg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logg:      logg,
		store:     store,
		client:    client,
		auth:      authService,
		resolver:  resolver,
		cart:      cartService,
		promos:    promoService,
		addresses: addressService,
		checkout:  checkoutService,
		products:  productService,
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.auth.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "signup":
		return a.signup(ctx, args)
	case "products":
		return a.browse(ctx, args)
	case "cart":
		return a.runCart(ctx, args)
	case "promo":
		return a.runPromo(ctx, args)
	case "address":
		return a.runAddress(ctx, args)
	case "checkout":
		return a.runCheckout(ctx, args)
	case "orders":
		return a.history(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown command %q", command))
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: login <username> <password>")
	}
	if err := a.auth.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", args[0])
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	user, err := a.auth.CurrentUser(ctx)
	if err == nil {
		fmt.Printf("%s (%s %s)\n", user.Username, user.FirstName, user.LastName)
		return nil
	}

	// Platform unreachable: fall back to the owner claim in the stored token.
	token, tokenErr := a.store.Token(ctx)
	if tokenErr != nil || token == "" {
		return err
	}
	owner, ownerErr := auth.TokenOwner(token)
	if ownerErr != nil {
		return err
	}
	fmt.Printf("%s (from stored session)\n", owner)
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: signup <username> <password> [email]")
	}
	input := auth.SignupInput{Username: args[0], Password: args[1]}
	if len(args) > 2 {
		input.Email = args[2]
	}
	user, err := a.auth.Signup(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s\n", user.Username)
	return nil
}

func (a *app) browse(ctx context.Context, args []string) error {
	if len(args) > 0 {
		product, err := a.products.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n%s\n", product.ID, product.Name, product.Description)
		return nil
	}
	list, err := a.products.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, product := range list {
		fmt.Fprintf(w, "%s\t%s\n", product.ID, product.Name)
	}
	return w.Flush()
}

func (a *app) runCart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: cart show|add|set|rm")
	}
	switch args[0] {
	case "show":
		snapshot, err := a.cart.View(ctx)
		if err != nil {
			return err
		}
		printCart(snapshot)
		return nil
	case "add", "set":
		if len(args) != 3 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("usage: cart %s <product> <qty>", args[0]))
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a number")
		}
		var snapshot cart.Snapshot
		if args[0] == "add" {
			snapshot, err = a.cart.AddItem(ctx, args[1], qty)
		} else {
			snapshot, err = a.cart.SetQuantity(ctx, args[1], qty)
		}
		if err != nil {
			return err
		}
		printCart(snapshot)
		return nil
	case "rm":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: cart rm <product>")
		}
		snapshot, err := a.cart.RemoveItem(ctx, args[1])
		if err != nil {
			return err
		}
		printCart(snapshot)
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cart command %q", args[0]))
	}
}

func printCart(snapshot cart.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, item := range snapshot.Items {
		fmt.Fprintf(w, "%s\tx%d\t%s\t%s\n", item.ProductName, item.Quantity, item.UnitPrice, item.LineTotal)
	}
	fmt.Fprintf(w, "subtotal\t\t\t%s\n", snapshot.Subtotal)
	if !snapshot.Discount.IsZero() {
		fmt.Fprintf(w, "discount\t\t\t-%s\n", snapshot.Discount)
	}
	if !snapshot.Shipping.IsZero() {
		fmt.Fprintf(w, "shipping\t\t\t%s\n", snapshot.Shipping)
	}
	if !snapshot.Tax.IsZero() {
		fmt.Fprintf(w, "tax\t\t\t%s\n", snapshot.Tax)
	}
	fmt.Fprintf(w, "total\t\t\t%s\n", snapshot.Total)
	w.Flush()
	fmt.Printf("%d item(s) in cart\n", snapshot.TotalItems)
}

func (a *app) runPromo(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: promo apply|rm|list")
	}
	switch args[0] {
	case "apply":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: promo apply <code>")
		}
		promo, err := a.promos.Apply(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("applied %s (-%s)\n", promo.Code, promo.Amount)
		return nil
	case "rm":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: promo rm <code>")
		}
		if err := a.promos.Remove(ctx, args[1]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[1])
		return nil
	case "list":
		for _, promo := range a.promos.List(ctx) {
			fmt.Printf("%s\t-%s\n", promo.Code, promo.Amount)
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown promo command %q", args[0]))
	}
}

func (a *app) runAddress(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage: address list|add|rm")
	}
	switch args[0] {
	case "list":
		list, err := a.addresses.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, addr := range list {
			caps := ""
			if addr.Shipping {
				caps += "S"
			}
			if addr.Billing {
				caps += "B"
			}
			fmt.Fprintf(w, "%s\t%s\t%s, %s %s\t%s\n", addr.ID, addr.AddressName, addr.City, addr.State, addr.Zip, caps)
		}
		return w.Flush()
	case "add":
		return a.addAddress(ctx, args[1:])
	case "rm":
		if len(args) != 2 {
			return pkgerrors.New(pkgerrors.CodeValidation, "usage: address rm <id>")
		}
		return a.addresses.Delete(ctx, args[1])
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown address command %q", args[0]))
	}
}

func (a *app) addAddress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("address add", flag.ContinueOnError)
	input := address.Input{}
	fs.StringVar(&input.AddressName, "name", "", "label for the address")
	fs.StringVar(&input.Street1, "street", "", "street line 1")
	fs.StringVar(&input.Street2, "street2", "", "street line 2")
	fs.StringVar(&input.City, "city", "", "city")
	fs.StringVar(&input.State, "state", "", "state or province")
	fs.StringVar(&input.Zip, "zip", "", "postal code")
	fs.StringVar(&input.Country, "country", "US", "two-letter country code")
	fs.StringVar(&input.Phone, "phone", "", "phone number")
	fs.BoolVar(&input.Shipping, "shipping", true, "usable as shipping address")
	fs.BoolVar(&input.Billing, "billing", true, "usable as billing address")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing address flags")
	}

	created, err := a.addresses.Create(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("saved address %s\n", created.ID)
	return nil
}

func (a *app) runCheckout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	input := checkout.Input{}
	fs.StringVar(&input.ShippingAddressID, "ship", "", "shipping address id")
	fs.StringVar(&input.BillingAddressID, "bill", "", "billing address id")
	fs.BoolVar(&input.SameAsShipping, "same", false, "bill to the shipping address")
	if err := fs.Parse(args); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing checkout flags")
	}

	result, err := a.checkout.Submit(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("order %s submitted, charged %s\n", result.Order.ID, result.Total)
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	if len(args) > 0 {
		detail, err := a.resolver.Detail(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("order %s\t%s\ttotal %s\n", detail.Order.ID, detail.Order.Status, detail.Order.Total)
		for _, item := range detail.LineItems {
			fmt.Printf("  %s x%d\t%s\n", item.ProductID, item.Quantity, item.LineTotal)
		}
		return nil
	}
	list, err := a.resolver.History(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, order := range list {
		submitted := ""
		if order.DateSubmitted != nil {
			submitted = order.DateSubmitted.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", order.ID, order.Status, order.Total, submitted)
	}
	return w.Flush()
}
