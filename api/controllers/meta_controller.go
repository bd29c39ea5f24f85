package controllers

import (
	"net/http"

	"insight-service/service/meta"

	"github.com/go-chi/render"
)

type MetaController struct {
}

func NewMetaController() *MetaController {
	return &MetaController{}
}

// @Summary 获取所有数据域元数据
// @Description 获取所有支持的数据域定义
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.DomainDefinition}
// @Failure 500 {object} APIResponse
// @Router /meta/domains [get]
func (c *MetaController) GetDomains(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取数据域元数据成功", meta.DataDomains))
}

// @Summary 获取所有字段类型元数据
// @Description 获取模式识别支持的字段类型定义
// @Tags 元数据
// @Produce json
// @Success 200 {object} APIResponse{data=[]meta.FieldTypeDefinition}
// @Failure 500 {object} APIResponse
// @Router /meta/field-types [get]
func (c *MetaController) GetFieldTypes(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取字段类型元数据成功", meta.FieldTypes))
}
