// @title           Fera Prompt API
// @version         1.0
// @description     Prompt templates executed through a workflow webhook, with execution history and HTML to PDF conversion.
// @BasePath        /api
package api
