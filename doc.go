/*
 * Copyright 2024 KindaDB Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package restdb provides a lightweight client for a table/key addressed data
store exposed over a REST endpoint.

# Client

Use NewClient to create a client. Name and Endpoint are required:

	client, err := restdb.NewClient(&restdb.Config{
		Name:     "accounts",
		Endpoint: "http://<restdb-host>:<port>",
	})
	if err != nil {
		return err
	}
	defer client.Close()

The token, if any, is sent as the "token" query parameter and can be
replaced at any time by an authentication component:

	client.SetToken(token)

# Tables and keys

A Table is a named namespace of items. Its name is dasherized in URLs, so
items of "UserAccount" live under <endpoint>/user-account. Keys are either
strings or numbers; numeric keys are tagged in URLs so that the server can
tell IntKey(42) ("num!42") from StringKey("42") ("42"):

	users := client.Table("UserAccount")

	item, err := users.Get(ctx, restdb.IntKey(42), nil)
	if err != nil {
		return err
	}
	if item == nil {
		// 204 No Content: the item does not exist
	}

	_, err = users.Put(ctx, restdb.StringKey("alice"), map[string]any{"age": 42}, nil)

	// An absent key creates a new item with POST.
	created, err := users.Put(ctx, restdb.Key{}, map[string]any{"age": 7}, nil)

# Errors

Any response outside the status an operation expects is returned as an
*Error carrying the HTTP status code. The message uses the "error" field of
the response body when the server provides one:

	var e *restdb.Error
	if errors.As(err, &e) && e.StatusCode == http.StatusConflict {
		...
	}

No operation retries. Retry and timeout policies belong to the transport
(see Config.HTTP and Config.Timeout) or to the caller.
*/
package restdb
