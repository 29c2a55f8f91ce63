// Package docs holds the OpenAPI document served under /swagger/.
// Keep it in sync with the @Router annotations in internal/transport/http.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "summary": "Liveness check",
                "tags": [
                    "system"
                ],
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "ok",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "tags": [
                    "system"
                ],
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/batches": {
            "post": {
                "summary": "Start a batch",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Materializes topics × count jobs and starts generating them one at a time.",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "batch request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/httptransport.startBatchDTO"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        },
        "/batches/current": {
            "get": {
                "summary": "Get the current batch",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    }
                }
            },
            "delete": {
                "summary": "Discard the current batch",
                "tags": [
                    "batches"
                ],
                "produces": [],
                "description": "Stops the batch and removes its persisted records. Results still in flight are dropped.",
                "responses": {
                    "204": {
                        "description": "No Content"
                    }
                }
            }
        },
        "/batches/current/pause": {
            "post": {
                "summary": "Pause the current batch",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "The job in flight finishes; no further job is started.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        },
        "/batches/current/cancel": {
            "post": {
                "summary": "Cancel the current batch",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Stops at the next job boundary and moves processing jobs back to pending.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        },
        "/batches/current/resume": {
            "post": {
                "summary": "Resume the current batch",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Continues pending and interrupted jobs with the stored generation parameters. Failed jobs stay failed.",
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        },
        "/batches/current/retry-failed": {
            "post": {
                "summary": "Move failed jobs back to pending",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "description": "Only allowed while the batch is not active. Follow with resume.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.batchResp"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        },
        "/batches/current/events": {
            "get": {
                "summary": "Stream run loop events",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "text/event-stream"
                ],
                "description": "Server-sent events. The first event is the current batch, then one event per job transition.",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/batches/current/jobs/{id}/result": {
            "get": {
                "summary": "Get the generated article of a job",
                "tags": [
                    "batches"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "job id (uuid)",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.apiError"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "batch.Outcome": {
            "type": "string",
            "enum": [
                "idle",
                "running",
                "paused",
                "completed",
                "partially_completed",
                "failed"
            ],
            "x-enum-varnames": [
                "OutcomeIdle",
                "OutcomeRunning",
                "OutcomePaused",
                "OutcomeCompleted",
                "OutcomePartiallyCompleted",
                "OutcomeFailed"
            ]
        },
        "entity.BatchProgress": {
            "type": "object",
            "properties": {
                "completed": {
                    "type": "integer"
                },
                "current": {
                    "type": "integer"
                },
                "estimatedSecondsRemaining": {
                    "type": "integer"
                },
                "failed": {
                    "type": "integer"
                },
                "isActive": {
                    "type": "boolean"
                },
                "total": {
                    "type": "integer"
                }
            }
        },
        "entity.BatchRequest": {
            "type": "object",
            "properties": {
                "count": {
                    "type": "integer"
                },
                "createdAt": {
                    "type": "string"
                },
                "params": {
                    "$ref": "#/definitions/entity.GenerationParams"
                },
                "topics": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "entity.GenerationParams": {
            "type": "object",
            "properties": {
                "location": {
                    "type": "string"
                },
                "quality": {
                    "$ref": "#/definitions/entity.QualityFlags"
                },
                "tone": {
                    "type": "string"
                }
            }
        },
        "entity.JobStatus": {
            "type": "string",
            "enum": [
                "pending",
                "processing",
                "completed",
                "failed"
            ],
            "x-enum-varnames": [
                "StatusPending",
                "StatusProcessing",
                "StatusCompleted",
                "StatusFailed"
            ]
        },
        "entity.QualityFlags": {
            "type": "object",
            "properties": {
                "includeFaq": {
                    "type": "boolean"
                },
                "includeSources": {
                    "type": "boolean"
                },
                "longForm": {
                    "type": "boolean"
                },
                "seoOptimized": {
                    "type": "boolean"
                }
            }
        },
        "httptransport.apiError": {
            "type": "object",
            "properties": {
                "field": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "httptransport.batchResp": {
            "type": "object",
            "properties": {
                "batchId": {
                    "type": "string"
                },
                "counts": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "integer"
                    }
                },
                "createdAt": {
                    "type": "string"
                },
                "isRunning": {
                    "type": "boolean"
                },
                "jobs": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/httptransport.jobResp"
                    }
                },
                "lastPersistedAt": {
                    "type": "string"
                },
                "outcome": {
                    "$ref": "#/definitions/batch.Outcome"
                },
                "progress": {
                    "$ref": "#/definitions/entity.BatchProgress"
                },
                "request": {
                    "$ref": "#/definitions/entity.BatchRequest"
                }
            }
        },
        "httptransport.jobResp": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "index": {
                    "type": "integer"
                },
                "progress": {
                    "type": "integer"
                },
                "retryCount": {
                    "type": "integer"
                },
                "status": {
                    "$ref": "#/definitions/entity.JobStatus"
                },
                "topic": {
                    "type": "string"
                }
            }
        },
        "httptransport.startBatchDTO": {
            "type": "object",
            "properties": {
                "count": {
                    "type": "integer"
                },
                "params": {
                    "$ref": "#/definitions/entity.GenerationParams"
                },
                "topics": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Article Batch Service API",
	Description:      "Bulk article generation: one batch at a time, one job in flight, resumable after restarts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
