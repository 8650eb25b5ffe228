// Package registry resolves background job targets by entity name.
//
// A Registry holds named classes. Model[T] is the generic class used by most
// applications: it carries class-level methods, instance-level methods bound to
// a loaded *T, and a Finder that loads instances by id (GormFinder for GORM models).
//
//	users := registry.NewModel("User", registry.GormFinder[User](db)).
//		Static("sendEmail", core.DataMethod(sendEmail)).
//		Method("recalculate", registry.NoData(func(ctx context.Context, u *User) (any, error) {
//			return u.Recalculate(ctx)
//		}))
//
//	reg := registry.New()
//	reg.Register(users)
package registry
