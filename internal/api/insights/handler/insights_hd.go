package insightsHandler

import (
	contextPkg "DermaTrack/pkg/context"
	"DermaTrack/pkg/handlerUtil"
	jwtPkg "DermaTrack/pkg/jwt"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const insightTimeout = 15 * time.Second

const (
	defaultProgressDays = 30
	defaultTrendWeeks   = 4
	defaultWindowHours  = 24
	defaultMinPairs     = 2
	defaultMinEvents    = 2
)

func (h *InsightsHandler) GetProgressSummary(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), insightTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	days := ctx.QueryInt("days", defaultProgressDays)

	summary, err := h.insightsService.ProgressSummary(c, userData.ID, days)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "progress_summary")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, summary)
	}
}

func (h *InsightsHandler) GetWeeklyTrends(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), insightTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	weeks := ctx.QueryInt("weeks", defaultTrendWeeks)

	trends, err := h.insightsService.WeeklyTrends(c, userData.ID, weeks)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "weekly_trends")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, trends)
	}
}

func (h *InsightsHandler) GetTriggerCorrelation(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), insightTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	windowHours := ctx.QueryInt("window_hours", defaultWindowHours)
	minPairs := ctx.QueryInt("min_pairs", defaultMinPairs)

	correlations, err := h.insightsService.TriggerCorrelation(c, userData.ID, windowHours, minPairs)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "trigger_correlation")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, correlations)
	}
}

func (h *InsightsHandler) GetProductEffectiveness(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), insightTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userData, err := jwtPkg.GetUserLoginData(ctx)
	if err != nil {
		return errHandler.HandleUnauthorized(ctx, requestID, "Unauthorized")
	}

	minEvents := ctx.QueryInt("min_events", defaultMinEvents)

	products, err := h.insightsService.ProductEffectiveness(c, userData.ID, minEvents)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "product_effectiveness")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, products)
	}
}
