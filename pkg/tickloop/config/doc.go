/*
Package config loads host settings for a tickloop scheduler.

# Overview

Settings describes the tick period, the table and inbox sizes, the optional
journal, logging, and the tasks to register together with the events to
admit right after registration. Files are YAML or JSON:

	tick_period: 10ms
	table_capacity: 8
	journal:
	  path: ./journal.db
	  every: 100
	tasks:
	  - name: led
	    handler: blink
	    capacity: 2
	    payload_size: 1
	    events:
	      - kind: periodic
	        ticks: 50

Load applies defaults and validates:

	s, err := config.Load("tickloop.yaml")
	if err != nil {
	    log.Fatal(err)
	}

# Environment

Files read through Load or FromFile may reference environment variables as
${NAME} or ${NAME:-default}. An unset variable without a default fails the
load with an *UndefinedVariableError.

	journal:
	  path: ${TICKLOOP_STATE:-.}/journal.db

# Task Parameters

Each task carries a free-form params map that its handler factory reads
through Params. Accessors return the default if the key is missing or the
value cannot be converted:

	p := spec.TaskParams()
	every := p.Ticks("every", 10)
	label := p.String("label", spec.Name)
*/
package config
