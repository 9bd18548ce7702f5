// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

//go:build debug

package bkfdd

func init() {
	_DEBUG = true
	_LOGLEVEL = 1
}
