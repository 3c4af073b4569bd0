// This file is part of glulx - https://github.com/db47h/glulx
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package glk

import "slices"

// registry holds the glk objects of one class in creation order.
type registry[T any] struct {
	ids  []uint32
	objs map[uint32]T
}

func (r *registry[T]) add(id uint32, o T) {
	if r.objs == nil {
		r.objs = make(map[uint32]T)
	}
	r.ids = append(r.ids, id)
	r.objs[id] = o
}

func (r *registry[T]) get(id uint32) (T, bool) {
	o, ok := r.objs[id]
	return o, ok
}

func (r *registry[T]) remove(id uint32) {
	if _, ok := r.objs[id]; !ok {
		return
	}
	delete(r.objs, id)
	if n := slices.Index(r.ids, id); n >= 0 {
		r.ids = slices.Delete(r.ids, n, n+1)
	}
}

// next returns the object following id in creation order. An id of zero
// returns the first object.
func (r *registry[T]) next(id uint32) (T, bool) {
	var zero T
	n := 0
	if id != 0 {
		n = slices.Index(r.ids, id)
		if n < 0 {
			return zero, false
		}
		n++
	}
	if n >= len(r.ids) {
		return zero, false
	}
	return r.objs[r.ids[n]], true
}

// all returns the objects in creation order.
func (r *registry[T]) all() []T {
	l := make([]T, 0, len(r.ids))
	for _, id := range r.ids {
		l = append(l, r.objs[id])
	}
	return l
}

func (r *registry[T]) reset() {
	r.ids = nil
	r.objs = nil
}

type window struct {
	id, rock uint32
	typ      uint32
	size     uint32
	str      *stream
	echo     *stream
	line     *lineRequest
	char     *charRequest
}

type lineRequest struct {
	buf, max uint32
	uni      bool
	partial  []rune
}

type charRequest struct {
	uni bool
}

type fileref struct {
	id, rock uint32
	name     string
	usage    uint32
	temp     bool
}

func (f *fileref) text() bool {
	return f.usage&fileusageTextMode != 0
}
