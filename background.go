package jobs

import (
	"context"
	"fmt"
	"maps"

	"github.com/jdziat/simple-model-jobs/pkg/core"
	"github.com/jdziat/simple-model-jobs/pkg/queue"
)

// RunStatic enqueues a class-level call of method on model with details as data.
//
// The job type is details["type"] when set, else the queue name. A title
// "Run Static Method #<method> in <model>" is added unless details has one.
func RunStatic(ctx context.Context, f core.JobFactory, model, method string, details Data) (*Job, error) {
	if model == "" {
		return nil, core.MissingModelName()
	}
	if method == "" {
		return nil, core.MissingMethodName(model)
	}

	data := backgroundData(details, core.RoutingContext{Model: model, Method: method})
	if _, ok := data[queue.KeyTitle]; !ok {
		data[queue.KeyTitle] = fmt.Sprintf("Run Static Method #%s in %s", method, model)
	}
	return dispatch(ctx, f, data)
}

// RunInstance enqueues an instance-level call of method on the model instance id.
// The default title is "Run instance method #<method> in <model> - <id>".
func RunInstance(ctx context.Context, f core.JobFactory, model, id, method string, details Data) (*Job, error) {
	if model == "" {
		return nil, core.MissingModelName()
	}
	if method == "" {
		return nil, core.MissingMethodName(model)
	}
	if id == "" {
		return nil, core.MissingInstance(model, id)
	}

	data := backgroundData(details, core.RoutingContext{Model: model, Method: method, InstanceID: id})
	if _, ok := data[queue.KeyTitle]; !ok {
		data[queue.KeyTitle] = fmt.Sprintf("Run instance method #%s in %s - %s", method, model, id)
	}
	return dispatch(ctx, f, data)
}

func backgroundData(details Data, rc core.RoutingContext) Data {
	data := maps.Clone(details)
	if data == nil {
		data = Data{}
	}
	data[core.ContextKey] = rc
	return data
}

func dispatch(ctx context.Context, f core.JobFactory, data Data) (*Job, error) {
	b, err := f.Create(ctx, "", data)
	if err != nil {
		return nil, err
	}
	return b.Save(ctx)
}
