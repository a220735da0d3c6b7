package engine

import "time"

// Tuning collects the engine's timing constants. They shape how the
// companion feels but none of them is load-bearing; tests and hosts may
// override any of them.
type Tuning struct {
	// BlinkDuration is how long a blink shows.
	BlinkDuration time.Duration
	// BlinkMin/BlinkMax bound the uniformly sampled interval between
	// blinks.
	BlinkMin time.Duration
	BlinkMax time.Duration

	// SentHold is how long the Sent state shows.
	SentHold time.Duration
	// ReceivedHold is the length of each half of the Received/Grateful
	// cycle.
	ReceivedHold time.Duration
	// DiscoveredHold is how long a new-peer greeting shows.
	DiscoveredHold time.Duration

	// SleepPeriod is the alternation period of the two sleep faces.
	SleepPeriod time.Duration
	// LookPeriod is the idle look-cycle advance period.
	LookPeriod time.Duration
	// CaptionPeriod is the idle caption rotation period. Deliberately not a
	// multiple of LookPeriod so the two don't visually alias.
	CaptionPeriod time.Duration
	// SentCaptionPeriod rotates the Sent captions.
	SentCaptionPeriod time.Duration

	// MinDwell throttles non-preempting transitions to stop idle sub-phases
	// from flickering.
	MinDwell time.Duration

	// SendWindow is the send-correlation window.
	SendWindow time.Duration
	// SendFlagTimeout clears a stuck sending flag.
	SendFlagTimeout time.Duration
	// SendSamplePeriod is how often the outbound counter is sampled.
	SendSamplePeriod time.Duration

	// BurstWindow/BurstCount/BurstHold define the message-rate burst.
	BurstWindow time.Duration
	BurstCount  int
	BurstHold   time.Duration

	// StepBudget bounds one scheduler step; RetryDelay is requested after an
	// over-budget pass; PassDelay/BurstPassDelay are the normal inter-pass
	// delays.
	StepBudget     time.Duration
	RetryDelay     time.Duration
	PassDelay      time.Duration
	BurstPassDelay time.Duration

	// PopupTTL is how long a received-message popup stays renderable.
	PopupTTL time.Duration
	// FavoriteRefresh bounds how often the favorite-count directory scan
	// runs.
	FavoriteRefresh time.Duration
	// SaveInterval rate-limits opportunistic snapshot writes.
	SaveInterval time.Duration
}

// DefaultTuning returns the stock timing.
func DefaultTuning() Tuning {
	return Tuning{
		BlinkDuration: 80 * time.Millisecond,
		BlinkMin:      2 * time.Second,
		BlinkMax:      5 * time.Second,

		SentHold:       2500 * time.Millisecond,
		ReceivedHold:   3 * time.Second,
		DiscoveredHold: 8 * time.Second,

		SleepPeriod:       time.Second,
		LookPeriod:        time.Second,
		CaptionPeriod:     5500 * time.Millisecond,
		SentCaptionPeriod: 2 * time.Second,

		MinDwell: 5 * time.Second,

		SendWindow:       2 * time.Second,
		SendFlagTimeout:  5 * time.Second,
		SendSamplePeriod: time.Second,

		BurstWindow: 5 * time.Second,
		BurstCount:  4,
		BurstHold:   3 * time.Second,

		StepBudget:     20 * time.Millisecond,
		RetryDelay:     10 * time.Millisecond,
		PassDelay:      50 * time.Millisecond,
		BurstPassDelay: 25 * time.Millisecond,

		PopupTTL:        5 * time.Second,
		FavoriteRefresh: 15 * time.Second,
		SaveInterval:    time.Minute,
	}
}
