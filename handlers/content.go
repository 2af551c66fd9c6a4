package handlers

import (
	"errors"
	"strings"

	"todolist/app"
	"todolist/contract"
	"todolist/database"
	"todolist/models"
	"todolist/services"

	"github.com/gofiber/fiber/v2"
)

// contentURI rebuilds the content address from the route wildcard,
// e.g. /api/content/com.example.android.todolist/tasks/1
func contentURI(c *fiber.Ctx) string {
	uri := contract.Scheme + "://" + strings.TrimPrefix(c.Params("*"), "/")
	c.Locals("contentURI", uri)
	return uri
}

// providerError maps provider failures onto HTTP statuses
func providerError(c *fiber.Ctx, uri string, err error) error {
	switch {
	case errors.Is(err, services.ErrUnrecognizedAddress):
		return notFound(c, "Unknown uri: "+uri)
	case errors.Is(err, services.ErrNotImplemented):
		return notImplemented(c, "Not yet implemented")
	case errors.Is(err, services.ErrInsertFailed):
		return unprocessable(c, err.Error())
	case errors.Is(err, database.ErrUnknownColumn), errors.Is(err, database.ErrInvalidSortOrder),
		errors.Is(err, database.ErrInvalidSelection):
		return badRequest(c, err.Error())
	default:
		return serverErrorWithDetails(c, "Failed to access "+uri, err)
	}
}

// InsertTask inserts a row into the collection addressed by the path
func InsertTask(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uri := contentURI(c)

		var req models.InsertTaskRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		newURI, err := a.Provider.Insert(c.UserContext(), uri, req.Values)
		if err != nil {
			return providerError(c, uri, err)
		}

		id, err := contract.ParseID(newURI)
		if err != nil {
			return serverErrorWithDetails(c, "Inserted row has no id", err)
		}
		return created(c, fiber.Map{"uri": newURI, "id": id})
	}
}

// QueryTasks fetches rows addressed by the path
func QueryTasks(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uri := contentURI(c)

		var req models.QueryTasksRequest
		if err := c.QueryParser(&req); err != nil {
			return badRequest(c, "Invalid query parameters")
		}
		if err := a.Validator.Validate(&req); err != nil {
			return validationError(c, err)
		}

		cursor, err := a.Provider.Query(c.UserContext(), uri, req.ToQuery())
		if err != nil {
			return providerError(c, uri, err)
		}
		defer cursor.Close()

		records, err := cursor.Collect()
		if err != nil {
			return serverErrorWithDetails(c, "Failed to read rows", err)
		}

		return success(c, fiber.Map{
			"records": records,
			"count":   len(records),
		})
	}
}

// UpdateTasks is not supported
func UpdateTasks(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uri := contentURI(c)
		_, err := a.Provider.Update(c.UserContext(), uri, nil, c.Query("selection"), nil)
		return providerError(c, uri, err)
	}
}

// DeleteTasks is not supported
func DeleteTasks(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uri := contentURI(c)
		_, err := a.Provider.Delete(c.UserContext(), uri, c.Query("selection"), nil)
		return providerError(c, uri, err)
	}
}

// GetType is not supported
func GetType(a *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uri := contentURI(c)
		_, err := a.Provider.GetType(uri)
		return providerError(c, uri, err)
	}
}
