package models

import (
	"time"

	"github.com/nkiryanov/todoserver/internal/schema"
)

// Field tables of the entities. Internal names are Go field names

var UserSchema = schema.New("user",
	schema.Attr[User]("username", "Username"),
	schema.Hidden[User]("HashedPassword"),
	schema.Attr[User]("email", "Email"),
	schema.Attr[User]("created_at", "CreatedAt"),
	schema.Patchable("forename", "Forename", func(u *User) **string { return &u.Forename }),
	schema.Patchable("surname", "Surname", func(u *User) **string { return &u.Surname }),
	schema.Hidden[User]("Roles"),
)

var TodoSchema = schema.New("todo",
	schema.Attr[Todo]("id", "ID"),
	schema.Patchable("title", "Title", func(t *Todo) **string { return &t.Title }),
	schema.Patchable("description", "Description", func(t *Todo) **string { return &t.Description }),
	schema.Attr[Todo]("created_at", "CreatedAt"),
	schema.Attr[Todo]("updated_at", "UpdatedAt"),
	schema.Patchable("scheduled_at", "ScheduledAt", func(t *Todo) **time.Time { return &t.ScheduledAt }),
	schema.Patchable("completed", "Completed", func(t *Todo) **bool { return &t.Completed }),
	schema.Nested[Todo]("user", "User", UserSchema),
)
