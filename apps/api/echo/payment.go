package echoapi

import (
	"io/ioutil"
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelasi/backend/core"
	"github.com/kelasi/backend/core/payment"
	"github.com/kelasi/backend/core/payment/gateway"
	"github.com/kelasi/backend/core/user"
)

// Webhook signature headers
const (
	flutterwaveSigHeader = "verif-hash"
	paystackSigHeader    = "x-paystack-signature"
)

type paymentApi struct {
	svc      *payment.Service
	gwSvc    *gateway.Service
	usrSvc   *user.Service
	validate *validator.Validate
	log      core.Logger
}

func registerPaymentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *payment.Service,
	gwSvc *gateway.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
	log core.Logger,
) {
	api := paymentApi{svc: svc, gwSvc: gwSvc, usrSvc: usrSvc, validate: validate, log: log}

	pg := g.Group("/payments")

	// un-authed endpoints; providers authenticate with signature headers
	pg.POST("/webhooks/flutterwave", api.flutterwaveWebhook)
	pg.POST("/webhooks/paystack", api.paystackWebhook)

	// authed endpoints
	ag := pg.Group("", jwt)
	ag.POST("", api.record, bursarMiddleware())
	ag.GET("", api.query, bursarMiddleware())
	ag.GET("/summary", api.summary, bursarMiddleware())
	ag.GET("/summary/classes", api.classSummaries, bursarMiddleware())
	ag.GET("/debtors", api.debtors, bursarMiddleware())
	ag.GET("/students/:studentId/balance", api.studentBalance)
	ag.POST("/initiate", api.initiate)
	ag.GET("/config", api.gatewayConfig, adminMiddleware(user.RoleAdminOwner, user.RoleAdminPrincipal))
	ag.PUT("/config", api.updateGatewayConfig, adminMiddleware(user.RoleAdminOwner, user.RoleAdminPrincipal))

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve, bursarMiddleware())
	dg.POST("/installments/:installmentId/approve", api.approve, bursarMiddleware())
	dg.GET("/installments/:installmentId/receipt", api.receipt)
}

// Handlers

func (api *paymentApi) record(ctx echo.Context) error {
	var data payment.NewInstallment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstallment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pmt, err := api.svc.RecordInstallment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording installment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Payment{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	payments, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	applyPaymentOrderings(payments, ordering.Orderings)
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	pmt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) approve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pmt, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), ctx.Param("installmentId"), ctxUsr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) receipt(ctx echo.Context) error {
	rcpt, err := api.svc.ReceiptData(ctx.Request().Context(), ctx.Param("id"), ctx.Param("installmentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rcpt)
}

func (api *paymentApi) studentBalance(ctx echo.Context) error {
	sum, err := api.svc.StudentBalance(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *paymentApi) summary(ctx echo.Context) error {
	var query SessionTermRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SessionTermRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	sum, err := api.svc.Summary(ctx.Request().Context(), query.Session, query.Term)
	if err != nil {
		return errors.Wrap(err, "summarizing fees")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *paymentApi) classSummaries(ctx echo.Context) error {
	var query SessionTermRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SessionTermRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	summaries, err := api.svc.ClassSummaries(ctx.Request().Context(), query.Session, query.Term)
	if err != nil {
		return errors.Wrap(err, "summarizing classes")
	}
	if summaries == nil {
		summaries = []payment.ClassSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *paymentApi) debtors(ctx echo.Context) error {
	var query SessionTermRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SessionTermRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	debtors, err := api.svc.Debtors(ctx.Request().Context(), query.Session, query.Term)
	if err != nil {
		return errors.Wrap(err, "listing debtors")
	}
	if debtors == nil {
		debtors = []payment.Debtor{}
	}
	return ctx.JSON(http.StatusOK, debtors)
}

func (api *paymentApi) initiate(ctx echo.Context) error {
	var data gateway.InitiateCharge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InitiateCharge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	link, err := api.gwSvc.Initiate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "initiating charge")
	}
	return ctx.JSON(http.StatusOK, link)
}

func (api *paymentApi) gatewayConfig(ctx echo.Context) error {
	conf, err := api.gwSvc.Config(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *paymentApi) updateGatewayConfig(ctx echo.Context) error {
	var data gateway.UpdateConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConfig")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.gwSvc.UpdateConfig(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating gateway config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

// Webhooks. A failed signature check is a 401; any event that verifies but
// does not settle an installment is still a 200 so providers stop retrying.

func (api *paymentApi) flutterwaveWebhook(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}

	err = api.gwSvc.HandleFlutterwaveEvent(ctx.Request().Context(), body, ctx.Request().Header.Get(flutterwaveSigHeader))
	return api.webhookResponse(ctx, err)
}

func (api *paymentApi) paystackWebhook(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading webhook body")
	}

	err = api.gwSvc.HandlePaystackEvent(ctx.Request().Context(), body, ctx.Request().Header.Get(paystackSigHeader))
	return api.webhookResponse(ctx, err)
}

// webhookResponse keeps provider-facing responses to bare status codes:
// 200 on any terminal state, 401 on a signature mismatch and 500 for
// everything else so the provider redelivers. Providers only read the code;
// no response carries a body.
func (api *paymentApi) webhookResponse(ctx echo.Context, err error) error {
	switch errors.Cause(err) {
	case nil:
		return ctx.NoContent(http.StatusOK)
	case gateway.ErrBadSignature:
		return ctx.NoContent(http.StatusUnauthorized)
	default:
		api.log.Error("handling webhook event", err)
		return ctx.NoContent(http.StatusInternalServerError)
	}
}

func applyPaymentOrderings(payments []payment.Payment, orderings []core.DBOrdering) {
	for _, ord := range orderings {
		less := paymentLessFunc(payments, ord)
		if less == nil {
			continue
		}
		sort.SliceStable(payments, less)
	}
}

func paymentLessFunc(payments []payment.Payment, ord core.DBOrdering) func(i, j int) bool {
	switch ord.Field {
	case "balance":
		return func(i, j int) bool {
			if ord.Ascending {
				return payments[i].Balance < payments[j].Balance
			}
			return payments[i].Balance > payments[j].Balance
		}
	case "total_amount":
		return func(i, j int) bool {
			if ord.Ascending {
				return payments[i].TotalAmount < payments[j].TotalAmount
			}
			return payments[i].TotalAmount > payments[j].TotalAmount
		}
	case "updated_at":
		return func(i, j int) bool {
			if ord.Ascending {
				return payments[i].UpdatedAt.Before(payments[j].UpdatedAt)
			}
			return payments[i].UpdatedAt.After(payments[j].UpdatedAt)
		}
	}
	return nil
}

// SessionTermRequest scopes report endpoints to one session and term.
type SessionTermRequest struct {
	Session string    `query:"session" validate:"required,session"`
	Term    core.Term `query:"term" validate:"required,term"`
}

func (st *SessionTermRequest) Validate(validate *validator.Validate) error {
	st.Session = core.CleanString(st.Session)
	return validate.Struct(st)
}
