package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func paramID(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name)
	}

	return uint(id), nil
}

func GetTeamID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "team_id")
}

func GetRequestID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "request_id")
}

func GetFriendshipID(ctx *gin.Context) (uint, error) {
	return paramID(ctx, "friendship_id")
}
