package service

import (
	"context"
	"log"
	"sync"
	"time"

	"shelflife-api/internal/model"
)

// ScanConfig holds configuration for the expiry scanner.
type ScanConfig struct {
	// Interval is how often the scan runs. Default: 6 hours.
	Interval time.Duration

	// InitialDelay is how long after startup the first scan runs.
	InitialDelay time.Duration
}

// ScanSummary is the outcome of one expiry scan.
type ScanSummary struct {
	Total   int       `json:"total"`
	Expired int       `json:"expired"`
	Today   int       `json:"today"`
	Soon    int       `json:"soon"`
	Warning int       `json:"warning"`
	Unknown int       `json:"unknown"`
	ScanAt  time.Time `json:"scan_at"`
}

// ExpiryScanner periodically walks the inventory and logs how much stock is
// expired or about to expire. This is the server-side version of the app's
// expiry warnings.
type ExpiryScanner struct {
	inventory *InventoryService
	config    ScanConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewExpiryScanner creates an expiry scanner.
func NewExpiryScanner(inventory *InventoryService, config ScanConfig) *ExpiryScanner {
	if config.Interval == 0 {
		config.Interval = 6 * time.Hour
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = time.Minute
	}

	return &ExpiryScanner{
		inventory: inventory,
		config:    config,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the scan loop.
func (s *ExpiryScanner) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[ExpiryScanner] Started - Interval: %v", s.config.Interval)

	go func() {
		select {
		case <-time.After(s.config.InitialDelay):
			s.runScan()
		case <-s.stopCh:
		}
	}()

	go s.run()
}

// run is the main scan loop.
func (s *ExpiryScanner) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runScan()
		case <-s.stopCh:
			log.Printf("[ExpiryScanner] Stopped")
			return
		}
	}
}

// runScan performs the actual scan.
func (s *ExpiryScanner) runScan() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	summary, err := s.Scan(ctx)
	if err != nil {
		log.Printf("[ExpiryScanner] Error during scan: %v", err)
		return
	}

	if summary.Expired > 0 || summary.Today > 0 {
		log.Printf("[ExpiryScanner] ATTENTION: %d expired, %d expire today (of %d tracked)",
			summary.Expired, summary.Today, summary.Total)
	} else {
		log.Printf("[ExpiryScanner] %d tracked items: %d soon, %d warning",
			summary.Total, summary.Soon, summary.Warning)
	}
}

// Scan classifies the current inventory and returns the bucket counts.
func (s *ExpiryScanner) Scan(ctx context.Context) (*ScanSummary, error) {
	rows, err := s.inventory.List(ctx, "")
	if err != nil {
		return nil, err
	}

	summary := &ScanSummary{Total: len(rows), ScanAt: time.Now().UTC()}
	for _, r := range rows {
		switch r.Urgency {
		case model.UrgencyExpired:
			summary.Expired++
		case model.UrgencyToday:
			summary.Today++
		case model.UrgencySoon:
			summary.Soon++
		case model.UrgencyWarning:
			summary.Warning++
		case model.UrgencyUnknown:
			summary.Unknown++
		}
	}
	return summary, nil
}

// Stop stops the scanner.
func (s *ExpiryScanner) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
