package in_mem

import "errors"

var ErrDuplicateID = errors.New("article with this id already exists")
