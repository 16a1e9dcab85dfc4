// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault] for the default
configuration.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. For example, a valid config file is as follows:

	options:
	  log-level: 4
	  max-alarms: 10
	traversal:
	  path-sensitive: true
	  context-depth: 2
	  max-visits-per-block: 8
	ownership:
	  release-functions:
	    - package: ".+"
	      method: "^drop"
	  escape-functions:
	    - method: as_ptr

A list given in the config file replaces the default list entirely.

# Identifying code elements

The config uses [CodeIdentifier] to identify functions. An important feature of the code identifiers is that the
string specifications are seen as regexes if they can be compiled to regexes, otherwise they are strings. Empty
fields match anything.
*/
package config
