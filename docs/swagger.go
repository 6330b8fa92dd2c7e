// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": ["http"],
    "swagger": "2.0",
    "info": {
        "description": "API for managing Easyble teams, projects, boards, columns and tasks",
        "title": "Easyble API",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Users", "description": "Registration, login, profile and password reset"},
        {"name": "Teams", "description": "Team management operations"},
        {"name": "Projects", "description": "Project management operations"},
        {"name": "Boards", "description": "Board management and archive settings"},
        {"name": "Columns", "description": "Column management operations"},
        {"name": "Tasks", "description": "Task management, moving and completion"},
        {"name": "Invites", "description": "Board invitations and membership"}
    ]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Easyble API",
	Description:      "API for managing Easyble teams, projects, boards, columns and tasks",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
