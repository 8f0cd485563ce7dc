package main

import (
	"github.com/mtlprog/lpmon/internal/scheduler"
	"github.com/mtlprog/lpmon/internal/worker"
)

const (
	taskPriceUpdates     = "price-updates"
	taskPositionUpdates  = "position-updates"
	taskPortfolioRefresh = "portfolio-refresh"
	taskDataCleanup      = "data-cleanup"
	taskDailyArchive     = "daily-archive"
)

// tasks builds the monitor's scheduled task list.
func (a *app) tasks() []scheduler.Task {
	prices := worker.NewPriceWorker(a.prices, a.store, a.cfg.PriceWatchlist, a.cfg.PriceSnapshotTTL)
	refresher := worker.NewWalletRefresher(a.wallets, a.portfolios)
	keeper := worker.NewCacheKeeper(a.store, a.prices, a.cfg.PriceSweepAge)
	cleanup := worker.NewCleanup(a.prices)
	archiver := worker.NewArchiver(a.wallets, a.portfolios, a.archives, a.synthetic(), a.hook)

	at := a.cfg.DailyArchiveAt
	return []scheduler.Task{
		{Name: taskPriceUpdates, Trigger: scheduler.Every(a.cfg.PriceUpdateInterval), Handler: prices.Run},
		{Name: taskPositionUpdates, Trigger: scheduler.Every(a.cfg.PositionUpdateInterval), Handler: refresher.Run},
		{Name: taskPortfolioRefresh, Trigger: scheduler.Every(a.cfg.PortfolioRefreshInterval), Handler: keeper.Run},
		{Name: taskDataCleanup, Trigger: scheduler.Every(a.cfg.DataCleanupInterval), Handler: cleanup.Run},
		{Name: taskDailyArchive, Trigger: scheduler.DailyAt(at.Hour, at.Minute), Handler: archiver.Run},
	}
}
