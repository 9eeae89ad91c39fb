package database

import (
	"context"

	"gorm.io/gorm"
)

// Database groups the stores of one backend.
type Database struct {
	kind        string
	projectRepo ProjectStore
	commentRepo CommentStore
	messageRepo MessageStore
	userRepo    UserStore
	closer      func(context.Context) error
}

// New initializes a Database whose repositories share one GORM connection.
func New(db *gorm.DB) Database {
	return Database{
		kind:        "postgres",
		projectRepo: NewProjectRepo(db),
		commentRepo: NewCommentRepo(db),
		messageRepo: NewMessageRepo(db),
		userRepo:    NewUserRepo(db),
		closer: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Compose builds a Database from another backend's stores.
func Compose(kind string, projects ProjectStore, comments CommentStore, messages MessageStore, users UserStore, closer func(context.Context) error) Database {
	return Database{
		kind:        kind,
		projectRepo: projects,
		commentRepo: comments,
		messageRepo: messages,
		userRepo:    users,
		closer:      closer,
	}
}

// Accessor methods for each repository

func (d Database) Kind() string {
	return d.kind
}

func (d Database) ProjectRepo() ProjectStore {
	return d.projectRepo
}

func (d Database) CommentRepo() CommentStore {
	return d.commentRepo
}

func (d Database) MessageRepo() MessageStore {
	return d.messageRepo
}

func (d Database) UserRepo() UserStore {
	return d.userRepo
}

func (d Database) Close(ctx context.Context) error {
	if d.closer == nil {
		return nil
	}
	return d.closer(ctx)
}
