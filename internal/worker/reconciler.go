package worker

import (
	"DermaTrack/internal/api/analysis"
	analysisRepository "DermaTrack/internal/api/analysis/repository"
	"DermaTrack/pkg/s3"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	defaultSweepInterval = 15 * time.Minute
	defaultGracePeriod   = 30 * time.Minute

	sweepTimeout = 5 * time.Minute
)

// Reconciler reaps artifact triples whose KPI row never landed: uploads
// that were orphaned by an insert failure or a crash between upload and
// insert. Objects younger than the grace period are left alone since
// their pipeline may still be running.
type Reconciler struct {
	log      *logrus.Logger
	repo     analysisRepository.Repository
	s3       s3.ItfS3
	interval time.Duration
	grace    time.Duration
}

func NewReconciler(log *logrus.Logger, repo analysisRepository.Repository, s3Client s3.ItfS3) *Reconciler {
	return &Reconciler{
		log:      log,
		repo:     repo,
		s3:       s3Client,
		interval: durationFromEnv("RECONCILER_INTERVAL_MINUTES", defaultSweepInterval),
		grace:    durationFromEnv("RECONCILER_GRACE_MINUTES", defaultGracePeriod),
	}
}

// Run sweeps on a ticker until the context is cancelled. Meant to be
// started as a goroutine from server assembly.
func (r *Reconciler) Run(ctx context.Context) {
	r.log.WithFields(logrus.Fields{
		"interval": r.interval.String(),
		"grace":    r.grace.String(),
	}).Info("Artifact reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Artifact reconciler stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

type orphanCandidate struct {
	userID   string
	imageID  string
	keys     []string
	youngest time.Time
}

func (r *Reconciler) sweep(ctx context.Context) {
	c, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	objects, err := r.s3.ListKeys(c, analysis.KeyPrefix)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Reconciler failed to list artifacts")
		return
	}

	candidates := make(map[string]*orphanCandidate)
	for _, obj := range objects {
		userID, imageID, _, ok := analysis.ParseArtifactKey(obj.Key)
		if !ok {
			continue
		}

		id := userID + "/" + imageID
		cand, exists := candidates[id]
		if !exists {
			cand = &orphanCandidate{userID: userID, imageID: imageID}
			candidates[id] = cand
		}
		cand.keys = append(cand.keys, obj.Key)
		if obj.LastModified.After(cand.youngest) {
			cand.youngest = obj.LastModified
		}
	}

	repo, err := r.repo.NewClient(false)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Reconciler failed to create repository client")
		return
	}

	cutoff := time.Now().Add(-r.grace)
	reaped := 0
	for _, cand := range candidates {
		if cand.youngest.After(cutoff) {
			continue
		}

		exists, err := repo.KPI.KPIExists(c, cand.userID, cand.imageID)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"user_id":  cand.userID,
				"image_id": cand.imageID,
				"error":    err.Error(),
			}).Error("Reconciler row probe failed, skipping candidate")
			continue
		}
		if exists {
			continue
		}

		for _, key := range cand.keys {
			if err := r.s3.DeleteObject(c, key); err != nil {
				r.log.WithFields(logrus.Fields{
					"key":   key,
					"error": err.Error(),
				}).Error("Reconciler failed to delete orphan artifact")
				continue
			}
			reaped++
		}

		r.log.WithFields(logrus.Fields{
			"user_id":  cand.userID,
			"image_id": cand.imageID,
			"objects":  len(cand.keys),
		}).Info("Reaped orphan artifacts")
	}

	if reaped == 0 {
		r.log.Debug("Reconciler sweep found no orphans")
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 1 {
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}
