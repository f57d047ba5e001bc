package router

import (
	"net/url"
	"strconv"
)

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func mediaPath(key string) string {
	u := url.URL{Path: key}
	return "/media/" + u.EscapedPath()
}
