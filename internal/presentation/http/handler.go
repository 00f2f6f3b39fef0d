package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	appauth "github.com/yutashop/storefront/internal/application/auth"
	appcart "github.com/yutashop/storefront/internal/application/cart"
	appcatalog "github.com/yutashop/storefront/internal/application/catalog"
	"github.com/yutashop/storefront/internal/application/checkout"
	apphistory "github.com/yutashop/storefront/internal/application/history"
	domauth "github.com/yutashop/storefront/internal/domain/auth"
	domcart "github.com/yutashop/storefront/internal/domain/cart"
	domcatalog "github.com/yutashop/storefront/internal/domain/catalog"
	domorder "github.com/yutashop/storefront/internal/domain/order"
	dompayment "github.com/yutashop/storefront/internal/domain/payment"
	"github.com/yutashop/storefront/internal/observability"
	"github.com/yutashop/storefront/internal/observability/logctx"
)

type Handler struct {
	catalogService *appcatalog.Service
	cartService    *appcart.Service
	authService    *appauth.Service
	historyService *apphistory.Service
	coordinator    *checkout.Coordinator
	ids            RequestIDGenerator
	log            observability.Logger
	tel            observability.Observability
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	loginPath            = "/login"
)

func NewHandler(
	catalogSvc *appcatalog.Service,
	cartSvc *appcart.Service,
	authSvc *appauth.Service,
	historySvc *apphistory.Service,
	coordinator *checkout.Coordinator,
	ids RequestIDGenerator,
	tel observability.Observability,
) *Handler {
	baseLogger := observability.NopLogger()
	if tel != nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		catalogService: catalogSvc,
		cartService:    cartSvc,
		authService:    authSvc,
		historyService: historySvc,
		coordinator:    coordinator,
		ids:            ids,
		log:            baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.muxHandle(mux, http.MethodGet, "/products", h.handleListProducts)
	h.muxHandle(mux, http.MethodGet, "/products/{id}", h.handleProductDetail)
	h.muxHandle(mux, http.MethodPost, "/auth/login", h.handleLogin)
	h.muxHandle(mux, http.MethodPost, "/auth/logout", h.handleLogout)
	h.muxHandle(mux, http.MethodGet, "/cart", h.handleCartSummary)
	h.muxHandle(mux, http.MethodPost, "/cart/items", h.handleAddToCart)
	h.muxHandle(mux, http.MethodPut, "/cart/items/{id}", h.handleSetQuantity)
	h.muxHandle(mux, http.MethodDelete, "/cart/items/{id}", h.handleRemoveFromCart)
	h.muxHandle(mux, http.MethodPost, "/checkout", h.handleCheckout)
	h.muxHandle(mux, http.MethodPost, "/checkout/payment", h.handleSubmitPayment)
	h.muxHandle(mux, http.MethodPost, "/checkout/abandon", h.handleAbandonCheckout)
	h.muxHandle(mux, http.MethodGet, "/orders", h.handleListOrders)
	h.muxHandle(mux, http.MethodPost, "/orders/clear", h.handleRequestClear)
	h.muxHandle(mux, http.MethodPost, "/orders/clear/confirm", h.handleConfirmClear)
	h.muxHandle(mux, http.MethodPost, "/orders/clear/cancel", h.handleCancelClear)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	// Method-qualified patterns let ServeMux answer 405 for mismatched verbs.
	mux.HandleFunc(method+" "+route, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		// Wrap: Trace → Request Logger → Metrics → Access Log → Handler
		wrapped := h.withTrace(
			ObservabilityMiddleware(
				h.log,
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.ids,
			)(
				h.withHTTPMetrics(
					h.withAccessLog(handler),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

// --- catalog ---

type productResponse struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    string  `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Rate     float64 `json:"rate"`
	Ratings  int     `json:"ratings"`
	Quantity int     `json:"quantity"`
}

func toProductResponse(item *domcatalog.Item) productResponse {
	return productResponse{
		ID:       item.ID,
		Title:    item.Title,
		Price:    item.Price.StringFixed(2),
		Image:    item.Image,
		Category: item.Category,
		Rate:     item.Rating.Rate,
		Ratings:  item.Rating.Count,
		Quantity: item.Quantity,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogService.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toProductResponse(item))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleProductDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := h.catalogService.Detail(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(item))
}

// --- auth ---

type loginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Token         string `json:"token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginCredentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Username:      session.User.Username,
		Token:         session.Token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

// --- cart ---

type cartLineResponse struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Price          string `json:"price"`
	Image          string `json:"image"`
	Quantity       int    `json:"quantity"`
	Subtotal       string `json:"subtotal"`
	AvailableStock int    `json:"available_stock"`
	ExceedsStock   bool   `json:"exceeds_stock"`
}

type cartSummaryResponse struct {
	Lines           []cartLineResponse `json:"lines"`
	Total           string             `json:"total"`
	ItemCount       int                `json:"item_count"`
	HasInvalidItems bool               `json:"has_invalid_items"`
}

func (h *Handler) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cartService.Summary(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := cartSummaryResponse{
		Lines:           make([]cartLineResponse, 0, len(summary.Lines)),
		Total:           summary.Total.StringFixed(2),
		ItemCount:       summary.ItemCount,
		HasInvalidItems: summary.HasInvalidItems,
	}
	for _, line := range summary.Lines {
		out.Lines = append(out.Lines, cartLineResponse{
			ID:             line.ID,
			Title:          line.Title,
			Price:          line.Price.StringFixed(2),
			Image:          line.Image,
			Quantity:       line.Quantity,
			Subtotal:       line.Subtotal.StringFixed(2),
			AvailableStock: line.AvailableStock,
			ExceedsStock:   line.ExceedsStock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type addToCartRequest struct {
	ProductID int `json:"product_id"`
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.cartService.Add(r.Context(), req.ProductID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type setQuantityResponse struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	applied, err := h.cartService.SetQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setQuantityResponse{Quantity: applied})
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.cartService.Remove(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- checkout ---

type checkoutRequest struct {
	Confirm bool `json:"confirm"`
}

type pendingOrderResponse struct {
	Items []orderLineResponse `json:"items"`
	Total string              `json:"total"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// The confirm flag stands in for the yes/no prompt a UI would show.
	confirmer := checkout.ConfirmerFunc(func(context.Context, string) (bool, error) {
		return req.Confirm, nil
	})
	pending, err := h.coordinator.Begin(r.Context(), confirmer)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := pendingOrderResponse{
		Items: make([]orderLineResponse, 0, len(pending.Items)),
		Total: pending.Total.StringFixed(2),
	}
	for _, line := range pending.Items {
		out.Items = append(out.Items, toOrderLineResponse(line))
	}
	writeJSON(w, http.StatusOK, out)
}

type submitPaymentRequest struct {
	Method       string `json:"method"`
	CardNumber   string `json:"card_number"`
	BankAccount  string `json:"bank_account"`
	WalletNumber string `json:"wallet_number"`
}

type submitPaymentResponse struct {
	Order   orderResponse `json:"order"`
	Message string        `json:"message"`
}

func (h *Handler) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req submitPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	finalized, err := h.coordinator.SubmitPayment(r.Context(),
		dompayment.Method(req.Method),
		dompayment.Details{
			CardNumber:   req.CardNumber,
			BankAccount:  req.BankAccount,
			WalletNumber: req.WalletNumber,
		},
	)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitPaymentResponse{
		Order:   toOrderResponse(finalized),
		Message: "Payment successful!",
	})
}

func (h *Handler) handleAbandonCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Abandon(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- order history ---

type orderLineResponse struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

func toOrderLineResponse(line domorder.Line) orderLineResponse {
	return orderLineResponse{
		ID:       line.ID,
		Title:    line.Title,
		Price:    line.Price.StringFixed(2),
		Quantity: line.Quantity,
		Subtotal: line.Subtotal().StringFixed(2),
	}
}

type orderResponse struct {
	ID            string              `json:"id"`
	Date          time.Time           `json:"date"`
	Items         []orderLineResponse `json:"items"`
	Total         string              `json:"total"`
	PaymentMethod string              `json:"payment_method"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	out := orderResponse{
		ID:            o.ID,
		Date:          o.Date,
		Items:         make([]orderLineResponse, 0, len(o.Items)),
		Total:         o.Total.StringFixed(2),
		PaymentMethod: string(o.PaymentMethod),
	}
	for _, line := range o.Items {
		out.Items = append(out.Items, toOrderLineResponse(line))
	}
	return out
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.historyService.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRequestClear(w http.ResponseWriter, r *http.Request) {
	h.historyService.RequestClear(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "confirmation_required"})
}

func (h *Handler) handleConfirmClear(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.ConfirmClear(r.Context()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCancelClear(w http.ResponseWriter, r *http.Request) {
	h.historyService.CancelClear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("storefront.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if h.tel == nil {
			return
		}
		route := routeFromContext(r.Context())
		h.tel.Metrics().Counter(observability.MHTTPRequests).Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", strconv.Itoa(lrw.status)),
		)
		h.tel.Metrics().Histogram(observability.MHTTPRequestDuration).Observe(
			time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
		)
	})
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps domain errors onto the HTTP surface. Auth guards
// redirect to the login page rather than failing; everything else renders
// as inline feedback.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domauth.ErrNotAuthenticated):
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	case errors.Is(err, domauth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domcart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, checkout.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, checkout.ErrCheckoutInProgress):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, appcatalog.ErrFetchFailed):
		writeError(w, http.StatusBadGateway, err)
	case errors.Is(err, checkout.ErrConfirmationDeclined),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrStockExceeded),
		errors.Is(err, domcart.ErrOutOfStock),
		errors.Is(err, domorder.ErrNoPending),
		errors.Is(err, apphistory.ErrClearNotRequested),
		errors.Is(err, dompayment.ErrMethodRequired),
		errors.Is(err, dompayment.ErrUnknownMethod),
		errors.Is(err, dompayment.ErrCardNumberRequired),
		errors.Is(err, dompayment.ErrBankAccountRequired),
		errors.Is(err, dompayment.ErrWalletNumberRequired):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so
// downstream metrics and logging stay low-cardinality.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
