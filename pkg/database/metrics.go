package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolStats is the part of *pgxpool.Stat the collector reads.
type poolStats interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
}

// PoolCollector exports pgxpool statistics.
type PoolCollector struct {
	stat func() poolStats

	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	total        *prometheus.Desc
	max          *prometheus.Desc
	acquires     *prometheus.Desc
	emptyAcquire *prometheus.Desc
}

// NewPoolCollector returns a collector reading pool.Stat on every scrape.
func NewPoolCollector(pool *pgxpool.Pool) *PoolCollector {
	return newPoolCollector(func() poolStats { return pool.Stat() })
}

func newPoolCollector(stat func() poolStats) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("storefront_db_pool_"+name, help, nil, nil)
	}
	return &PoolCollector{
		stat:         stat,
		acquired:     desc("acquired_connections", "Connections currently checked out"),
		idle:         desc("idle_connections", "Connections currently idle"),
		total:        desc("total_connections", "Connections open in the pool"),
		max:          desc("max_connections", "Configured connection limit"),
		acquires:     desc("acquires_total", "Connection acquisitions"),
		emptyAcquire: desc("empty_acquires_total", "Acquisitions that waited for a free connection"),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyAcquire
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	gauge := func(d *prometheus.Desc, v int32) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge(c.acquired, s.AcquiredConns())
	gauge(c.idle, s.IdleConns())
	gauge(c.total, s.TotalConns())
	gauge(c.max, s.MaxConns())
	counter(c.acquires, s.AcquireCount())
	counter(c.emptyAcquire, s.EmptyAcquireCount())
}
