// Package schedule dispatches recurring jobs.
//
// A Scheduler wraps a robfig/cron runner. Each entry creates and saves a job
// through a Factory (usually a *queue.Manager) every time it fires:
//
//	s := schedule.New(manager)
//	s.Add("*/5 * * * *", "mongoose", core.Data{"context": core.RoutingContext{Model: "Report", Method: "rollup"}})
//	s.AddSchedule(schedule.Daily(9, 30), "mongoose", data)
//	s.Start()
//	defer s.Stop(ctx)
//
// Every, Daily, Weekly and Cron build schedules for AddSchedule.
package schedule
