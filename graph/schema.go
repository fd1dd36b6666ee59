// Package graph exposes the journal engine over GraphQL. Every resolver goes
// through the same services as the REST handlers.
package graph

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/services"
)

type contextKey struct{}

// WithCaller stores the authenticated caller for resolvers.
func WithCaller(ctx context.Context, caller services.Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, caller)
}

func callerFrom(ctx context.Context) (services.Caller, error) {
	caller, ok := ctx.Value(contextKey{}).(services.Caller)
	if !ok || caller == nil {
		return nil, services.ErrUnauthenticated
	}
	return caller, nil
}

type Resolver struct {
	Journals      *services.JournalService
	Notifications *services.NotificationService
	Auth          *services.AuthService
}

// NewSchema builds the schema with r resolving every field.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"userType": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*models.User).Role), nil
				},
			},
		},
	})

	attachmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Attachment",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"journalId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"filePath":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
			"attachmentType": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(models.Attachment).AttachmentType), nil
				},
			},
		},
	})

	tagType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TaggedStudent",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"journalId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"studentId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	journalType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Journal",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.Field{Type: graphql.String},
			"teacherId":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"publishedAt": &graphql.Field{Type: graphql.DateTime},
			"isPublished": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt":   &graphql.Field{Type: graphql.DateTime},
			"updatedAt":   &graphql.Field{Type: graphql.DateTime},
			"attachments": &graphql.Field{Type: graphql.NewList(attachmentType)},
			"taggedStudents": &graphql.Field{
				Type: graphql.NewList(tagType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*models.Journal).Tags, nil
				},
			},
		},
	})

	notificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Notification",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"studentId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"journalId": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"message":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"isRead":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.me,
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.user,
			},
			"journal": &graphql.Field{
				Type: journalType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.journal,
			},
			"journals": &graphql.Field{
				Type: graphql.NewList(journalType),
				Args: graphql.FieldConfigArgument{
					"skip":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: r.journals,
			},
			"notifications": &graphql.Field{
				Type:    graphql.NewList(notificationType),
				Resolve: r.notifications,
			},
			"unreadNotifications": &graphql.Field{
				Type:    graphql.NewList(notificationType),
				Resolve: r.unreadNotifications,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"markNotificationAsRead": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"notificationId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.markNotificationAsRead,
			},
			"markAllNotificationsAsRead": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: r.markAllNotificationsAsRead,
			},
			"publishJournal": &graphql.Field{
				Type: journalType,
				Args: graphql.FieldConfigArgument{
					"id":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"publishedAt": &graphql.ArgumentConfig{Type: graphql.DateTime},
				},
				Resolve: r.publishJournal,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

// Execute runs one request as caller.
func Execute(ctx context.Context, schema graphql.Schema, caller services.Caller, query string, variables map[string]interface{}, operationName string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        WithCaller(ctx, caller),
	})
}

func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	return r.Auth.GetUser(p.Context, caller, caller.UserID())
}

func (r *Resolver) user(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	user, err := r.Auth.GetUser(p.Context, caller, uint(p.Args["id"].(int)))
	return nullIfNotFound(user, err)
}

// journal resolves to null when the caller may not see it, the same answer
// as for a missing id.
func (r *Resolver) journal(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	journal, err := r.Journals.GetJournal(p.Context, caller, uint(p.Args["id"].(int)))
	return nullIfNotFound(journal, err)
}

func (r *Resolver) journals(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	skip, _ := p.Args["skip"].(int)
	limit, _ := p.Args["limit"].(int)

	journals, err := r.Journals.ListFeed(p.Context, caller, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Journal, len(journals))
	for i := range journals {
		out[i] = &journals[i]
	}
	return out, nil
}

func (r *Resolver) notifications(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	if _, ok := caller.(services.Teacher); ok {
		return []models.Notification{}, nil
	}
	return r.Notifications.List(p.Context, caller, 0, 0)
}

func (r *Resolver) unreadNotifications(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	if _, ok := caller.(services.Teacher); ok {
		return []models.Notification{}, nil
	}
	return r.Notifications.ListUnread(p.Context, caller)
}

// markNotificationAsRead answers false for ids the caller does not own.
func (r *Resolver) markNotificationAsRead(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	_, err = r.Notifications.MarkRead(p.Context, caller, uint(p.Args["notificationId"].(int)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrForbidden):
		return false, nil
	default:
		return nil, err
	}
}

func (r *Resolver) markAllNotificationsAsRead(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	n, err := r.Notifications.MarkAllRead(p.Context, caller)
	if err != nil {
		return nil, err
	}
	return int(n), nil
}

func (r *Resolver) publishJournal(p graphql.ResolveParams) (interface{}, error) {
	caller, err := callerFrom(p.Context)
	if err != nil {
		return nil, err
	}
	var at *time.Time
	if v, ok := p.Args["publishedAt"].(time.Time); ok {
		at = &v
	}
	return r.Journals.PublishJournal(p.Context, caller, uint(p.Args["id"].(int)), at)
}

func nullIfNotFound[T any](v *T, err error) (interface{}, error) {
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
