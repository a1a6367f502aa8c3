package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/aulaweb/aula-admin/internal/errors"
	"github.com/aulaweb/aula-admin/internal/ports"
	"github.com/aulaweb/aula-admin/internal/validation"
)

// resource holds the REST paths of one backend collection.
type resource struct {
	api        ports.RESTClient
	validator  *validation.Validator
	collection string // e.g. "materias"
	listPath   string // defaults to collection
}

func newResource(api ports.RESTClient, v *validation.Validator, collection string) resource {
	if api == nil {
		panic(collection + " service requires a REST client")
	}
	if v == nil {
		v = validation.MustNew()
	}
	return resource{api: api, validator: v, collection: collection, listPath: collection}
}

func (r resource) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.ValidationField("id", "id es obligatorio")
	}
	return r.collection + "/" + url.PathEscape(id), nil
}

func (r resource) list(ctx context.Context, query url.Values) (any, error) {
	raw, err := r.api.Get(ctx, r.listPath, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.collection, err)
	}
	return raw, nil
}

func (r resource) get(ctx context.Context, id string) (any, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}
	raw, err := r.api.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return raw, nil
}

func (r resource) create(ctx context.Context, req any) (any, error) {
	if err := r.validator.Struct(req); err != nil {
		return nil, err
	}
	raw, err := r.api.Send(ctx, http.MethodPost, r.collection, req)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.collection, err)
	}
	return raw, nil
}

func (r resource) update(ctx context.Context, id string, req any) (any, error) {
	path, err := r.itemPath(id)
	if err != nil {
		return nil, err
	}
	if vErr := r.validator.Struct(req); vErr != nil {
		return nil, vErr
	}
	raw, err := r.api.Send(ctx, http.MethodPut, path, req)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", path, err)
	}
	return raw, nil
}

func (r resource) delete(ctx context.Context, id string) error {
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	if _, sendErr := r.api.Send(ctx, http.MethodDelete, path, nil); sendErr != nil {
		return fmt.Errorf("delete %s: %w", path, sendErr)
	}
	return nil
}
