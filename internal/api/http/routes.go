package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-etl-pipeline/internal/pipeline"
	"github.com/i474232898/weather-etl-pipeline/internal/storage"
)

var validate = validator.New()

// Collector triggers one collection run.
type Collector interface {
	Run(ctx context.Context) pipeline.Response
}

// Transformer processes one storage notification.
type Transformer interface {
	Run(ctx context.Context, event events.S3Event) pipeline.Response
}

// Deps are the components exposed over HTTP.
type Deps struct {
	Collector   Collector
	Transformer Transformer
	Store       storage.ObjectStore
	Bucket      string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Post("/collect", func(c *fiber.Ctx) error {
		resp := deps.Collector.Run(c.UserContext())
		return c.Status(resp.StatusCode).JSON(resp)
	})

	v1.Post("/transform", func(c *fiber.Ctx) error {
		event, err := parseTransformRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		resp := deps.Transformer.Run(c.UserContext(), event)
		return c.Status(resp.StatusCode).JSON(resp)
	})

	v1.Get("/objects", func(c *fiber.Ctx) error {
		lister, ok := deps.Store.(storage.Lister)
		if !ok {
			return fiber.NewError(fiber.StatusNotImplemented, "storage backend does not support listing")
		}

		bucket := c.Query("bucket", deps.Bucket)
		if bucket == "" {
			return fiber.NewError(fiber.StatusBadRequest, "bucket query parameter is required")
		}

		prefix := c.Query("prefix")
		objs, err := lister.ListObjects(c.UserContext(), bucket, prefix)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list objects")
		}
		if objs == nil {
			objs = []storage.ObjectInfo{}
		}

		return c.JSON(fiber.Map{
			"bucket":  bucket,
			"prefix":  prefix,
			"objects": objs,
		})
	})

	v1.Get("/objects/content", func(c *fiber.Ctx) error {
		stater, ok := deps.Store.(storage.Stater)
		if !ok {
			return fiber.NewError(fiber.StatusNotImplemented, "storage backend does not support reads with metadata")
		}

		ref := objectRef{Bucket: c.Query("bucket", deps.Bucket), Key: c.Query("key")}
		if err := validate.Struct(ref); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obj, err := stater.Stat(c.UserContext(), ref.Bucket, ref.Key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "object not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read object")
		}

		if obj.ContentType != "" {
			c.Set(fiber.HeaderContentType, obj.ContentType)
		}
		if !obj.LastModified.IsZero() {
			c.Set(fiber.HeaderLastModified, obj.LastModified.UTC().Format(http.TimeFormat))
		}
		return c.Send(obj.Body)
	})
}

// objectRef is the shorthand body accepted by the transform endpoint.
type objectRef struct {
	Bucket string `json:"bucket" validate:"required"`
	Key    string `json:"key" validate:"required"`
}

// parseTransformRequest accepts either a full S3 notification or {"bucket","key"}.
// The key is expected in its encoded form, as S3 delivers it.
func parseTransformRequest(c *fiber.Ctx) (events.S3Event, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return events.S3Event{}, errors.New("request body is required")
	}

	var event events.S3Event
	if err := c.BodyParser(&event); err == nil && len(event.Records) > 0 {
		ref := objectRef{
			Bucket: event.Records[0].S3.Bucket.Name,
			Key:    event.Records[0].S3.Object.Key,
		}
		if err := validate.Struct(ref); err != nil {
			return events.S3Event{}, err
		}
		return event, nil
	}

	var ref objectRef
	if err := c.BodyParser(&ref); err != nil {
		return events.S3Event{}, errors.New("body must be an S3 event or {\"bucket\",\"key\"}")
	}
	if err := validate.Struct(ref); err != nil {
		return events.S3Event{}, err
	}

	return events.S3Event{
		Records: []events.S3EventRecord{{
			EventSource: "aws:s3",
			EventName:   "ObjectCreated:Put",
			S3: events.S3Entity{
				Bucket: events.S3Bucket{Name: ref.Bucket},
				Object: events.S3Object{Key: ref.Key},
			},
		}},
	}, nil
}
