// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package petstore implements a typed client for the pet store API.
package petstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/z5labs/courier"
)

type Pet struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Client wraps one endpoint per pet store operation. Every operation is
// compiled once, at construction.
type Client struct {
	addPet    *courier.Endpoint[Pet]
	findPet   *courier.Endpoint[Pet]
	listPets  *courier.Endpoint[[]Pet]
	deletePet *courier.Endpoint[courier.Empty]
	upload    *courier.Endpoint[courier.Empty]
}

func NewClient(c *courier.Client) (*Client, error) {
	addPet, err := courier.NewEndpoint[Pet](c, &courier.Operation{
		Method: http.MethodPost,
		Path:   "pets",
		Params: []courier.Param{
			courier.BodyParam[Pet](),
		},
	})
	if err != nil {
		return nil, err
	}

	findPet, err := courier.NewEndpoint[Pet](c, &courier.Operation{
		Method: http.MethodGet,
		Path:   courier.BasePath("pets").Param("id").String(),
		Params: []courier.Param{
			courier.PathParam[int64]("id"),
		},
	})
	if err != nil {
		return nil, err
	}

	listPets, err := courier.NewEndpoint[[]Pet](c, &courier.Operation{
		Method: http.MethodGet,
		Path:   "pets",
		Params: []courier.Param{
			courier.QueryParam[[]string]("status"),
		},
	})
	if err != nil {
		return nil, err
	}

	deletePet, err := courier.NewEndpoint[courier.Empty](c, &courier.Operation{
		Method: http.MethodDelete,
		Path:   courier.BasePath("pets").Param("id").String(),
		Params: []courier.Param{
			courier.PathParam[int64]("id"),
		},
	})
	if err != nil {
		return nil, err
	}

	upload, err := courier.NewEndpoint[courier.Empty](c, &courier.Operation{
		Method:   http.MethodPost,
		Path:     courier.BasePath("pets").Param("id").Segment("photo").String(),
		Encoding: courier.EncodingMultipart,
		Params: []courier.Param{
			courier.PathParam[int64]("id"),
			courier.PartParam[*courier.Part]("photo"),
		},
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		addPet:    addPet,
		findPet:   findPet,
		listPets:  listPets,
		deletePet: deletePet,
		upload:    upload,
	}, nil
}

func (c *Client) Add(ctx context.Context, p Pet) (*Pet, error) {
	reply, err := c.addPet.Invoke(ctx, p)
	if err != nil {
		return nil, err
	}
	if !reply.IsSuccess() {
		return nil, fmt.Errorf("add pet: %d: %s", reply.StatusCode(), reply.ErrorBody())
	}
	return reply.Value(), nil
}

func (c *Client) Find(ctx context.Context, id int64) (*Pet, error) {
	reply, err := c.findPet.Invoke(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reply.IsSuccess() {
		return nil, fmt.Errorf("find pet %d: %d: %s", id, reply.StatusCode(), reply.ErrorBody())
	}
	return reply.Value(), nil
}

func (c *Client) List(ctx context.Context, statuses ...string) ([]Pet, error) {
	reply, err := c.listPets.Invoke(ctx, statuses)
	if err != nil {
		return nil, err
	}
	if !reply.IsSuccess() {
		return nil, fmt.Errorf("list pets: %d: %s", reply.StatusCode(), reply.ErrorBody())
	}

	pets := reply.Value()
	if pets == nil {
		return nil, nil
	}
	return *pets, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	reply, err := c.deletePet.Invoke(ctx, id)
	if err != nil {
		return err
	}
	if !reply.IsSuccess() {
		return fmt.Errorf("delete pet %d: %d: %s", id, reply.StatusCode(), reply.ErrorBody())
	}
	return nil
}

func (c *Client) UploadPhoto(ctx context.Context, id int64, filename string, photo []byte) error {
	reply, err := c.upload.Invoke(ctx, id, &courier.Part{
		Name:     "photo",
		Filename: filename,
		Body:     courier.BytesBody("image/jpeg", photo),
	})
	if err != nil {
		return err
	}
	if !reply.IsSuccess() {
		return fmt.Errorf("upload photo for pet %d: %d: %s", id, reply.StatusCode(), reply.ErrorBody())
	}
	return nil
}
