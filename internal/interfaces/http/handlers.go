package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jding/expense-approval/internal/application/service"
	"github.com/jding/expense-approval/internal/domain/entity"
	"github.com/jding/expense-approval/internal/domain/workflow"
)

// userIDHeader carries the request-scoped identity of the caller. Session
// management lives in front of this service; the engine never reads ambient
// state.
const userIDHeader = "X-User-ID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	expenseService  service.ExpenseService
	decisionService service.DecisionService
	ruleService     service.RuleService
	userService     service.UserService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	expenseService service.ExpenseService,
	decisionService service.DecisionService,
	ruleService service.RuleService,
	userService service.UserService,
	logger Logger,
) *Handlers {
	return &Handlers{
		expenseService:  expenseService,
		decisionService: decisionService,
		ruleService:     ruleService,
		userService:     userService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitExpenseRequest is the body of POST /api/expenses. ConvertedAmount is
// the amount in company currency, computed by the conversion service
// upstream.
type SubmitExpenseRequest struct {
	Amount          float64   `json:"amount" binding:"required"`
	Currency        string    `json:"currency" binding:"required"`
	ConvertedAmount float64   `json:"converted_amount"`
	Category        string    `json:"category" binding:"required"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	ReceiptURL      string    `json:"receipt_url"`
}

// DecisionRequest is the body of the approve/reject endpoints
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// CreateRuleRequest is the body of POST /api/approval-rules
type CreateRuleRequest struct {
	Name  string                 `json:"name" binding:"required"`
	Steps []*entity.ApprovalStep `json:"steps" binding:"required"`
}

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Email     string          `json:"email" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Role      entity.UserRole `json:"role" binding:"required"`
	ManagerID string          `json:"manager_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitExpense handles POST /api/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	actorID, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if req.ConvertedAmount == 0 {
		// Same-currency submissions arrive without a conversion.
		req.ConvertedAmount = req.Amount
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	expense, err := h.expenseService.Submit(c.Request.Context(), service.SubmitExpenseInput{
		UserID:          actorID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ConvertedAmount: req.ConvertedAmount,
		Category:        req.Category,
		Description:     req.Description,
		Date:            req.Date,
		ReceiptURL:      req.ReceiptURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: expense})
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if expense == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "expense not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ListExpenses handles GET /api/expenses, scoped to the caller's company
func (h *Handlers) ListExpenses(c *gin.Context) {
	actor, ok := h.requireUser(c)
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListByCompany(c.Request.Context(), actor.CompanyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// ListUserExpenses handles GET /api/expenses/user/:id
func (h *Handlers) ListUserExpenses(c *gin.Context) {
	expenses, err := h.expenseService.ListByUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// ListPendingExpenses handles GET /api/expenses/pending: the expenses the
// caller is currently eligible to decide
func (h *Handlers) ListPendingExpenses(c *gin.Context) {
	actorID, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListPendingForApprover(c.Request.Context(), actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: expenses})
}

// ApproveExpense handles POST /api/expenses/:id/approve
func (h *Handlers) ApproveExpense(c *gin.Context) {
	h.decide(c, entity.ApprovalStatusApproved)
}

// RejectExpense handles POST /api/expenses/:id/reject
func (h *Handlers) RejectExpense(c *gin.Context) {
	h.decide(c, entity.ApprovalStatusRejected)
}

func (h *Handlers) decide(c *gin.Context, decision entity.ApprovalStatus) {
	actorID, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}

	expense, err := h.decisionService.ApplyDecision(c.Request.Context(), c.Param("id"), actorID, decision, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: expense})
}

// ListRules handles GET /api/approval-rules, scoped to the caller's company
func (h *Handlers) ListRules(c *gin.Context) {
	actor, ok := h.requireUser(c)
	if !ok {
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), actor.CompanyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rules})
}

// CreateRule handles POST /api/approval-rules; admin only
func (h *Handlers) CreateRule(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), actor.CompanyID, req.Name, req.Steps)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: rule})
}

// ListUsers handles GET /api/users, scoped to the caller's company
func (h *Handlers) ListUsers(c *gin.Context) {
	actor, ok := h.requireUser(c)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), actor.CompanyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: users})
}

// CreateUser handles POST /api/users; admin only
func (h *Handlers) CreateUser(c *gin.Context) {
	actor, ok := h.requireAdmin(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actor.CompanyID, req.Email, req.Name, req.Role, req.ManagerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// requireIdentity extracts the caller's user ID from the identity header
func (h *Handlers) requireIdentity(c *gin.Context) (string, bool) {
	id := c.GetHeader(userIDHeader)
	if id == "" {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing " + userIDHeader + " header"})
		return "", false
	}
	return id, true
}

// requireUser loads the caller from the org directory
func (h *Handlers) requireUser(c *gin.Context) (*entity.User, bool) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return nil, false
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "unknown user"})
		return nil, false
	}
	return user, true
}

// requireAdmin loads the caller and checks for the admin role
func (h *Handlers) requireAdmin(c *gin.Context) (*entity.User, bool) {
	user, ok := h.requireUser(c)
	if !ok {
		return nil, false
	}
	if user.Role != entity.RoleAdmin {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "admin role required"})
		return nil, false
	}
	return user, true
}

// respondError maps engine errors to HTTP status codes. Typed failures from
// the workflow are surfaced to the caller, never swallowed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrInvalidRule), errors.Is(err, workflow.ErrInvalidDecision):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrUnauthorizedApprover):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrNotPending),
		errors.Is(err, workflow.ErrNoApplicableRule),
		errors.Is(err, workflow.ErrConcurrentModification):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
