package handle

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/docker/go-units"
)

// progress logs body transfer progress at most once per second.
type progress struct {
	logger      *slog.Logger
	url         string
	totalFn     func() int64
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (p *progress) reset() {
	p.transferred = 0
	p.total = -1
	p.startTime = time.Now()
	p.lastLog = p.startTime
}

func (p *progress) add(n int) {
	if p.transferred == 0 {
		p.total = p.totalFn()
	}
	p.transferred += int64(n)

	if time.Since(p.lastLog) >= time.Second {
		p.lastLog = time.Now()
		p.log("downloading")
	}

	if p.total >= 0 && p.transferred == p.total {
		p.log("download complete")
	}
}

func (p *progress) log(msg string) {
	elapsed := time.Since(p.startTime)
	attrs := []any{
		"url", p.url,
		"elapsed", elapsed.Round(time.Millisecond),
		"transferred", units.HumanSize(float64(p.transferred)),
		"mbps", fmt.Sprintf("%.2f", float64(p.transferred)/elapsed.Seconds()/(1024*1024)),
	}
	if p.total > 0 {
		attrs = append(attrs,
			"progress", fmt.Sprintf("%.1f%%", float64(p.transferred)/float64(p.total)*100),
			"total", units.HumanSize(float64(p.total)),
		)
	}
	p.logger.Info(msg, attrs...)
}
