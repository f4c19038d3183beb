// Package tasks runs slow or destructive maintenance off the caller's path:
// catalog resets, legacy sweeps and audit cleanup. Jobs are persisted by
// backlite in a SQLite file next to the main database so they survive
// restarts.
//
// # Usage
//
//	client, err := tasks.NewClient(cfg.Database.Path, tasksCfg)
//	client.Register(
//		tasks.NewResetCatalogQueue(svc),
//		tasks.NewSweepLegacyQueue(svc),
//		tasks.NewPruneAuditEventsQueue(auditSvc),
//	)
//	client.Start(ctx)
//	ids, err := client.Enqueue(tasks.ResetCatalogTask{Trigger: "manual"})
package tasks
