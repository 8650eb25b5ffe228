// Package router turns a delivered job into a method invocation on a registered entity.
//
// The job data carries a routing context under the reserved "context" key:
//
//	{"context": {"model": "User", "method": "sendEmail"}, "to": ["a@x.com"]}
//
// Without an "_id" the method runs at class level; with one, the instance is
// loaded first. The context key is removed before the data reaches the method.
// Every failure is returned as a *core.Error so callers can match it with errors.Is.
package router
